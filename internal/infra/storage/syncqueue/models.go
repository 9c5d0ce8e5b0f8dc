package syncqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// itemRecord представление элемента очереди в redis
type itemRecord struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"companyId"`
	Mutation   json.RawMessage `json:"mutation"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	RetryCount int             `json:"retryCount"`
}

func encodeItem(item *domain.SyncQueueItem) ([]byte, error) {
	mutation, err := domain.MarshalMutation(item.Mutation)
	if err != nil {
		return nil, fmt.Errorf("%w: mutation %s: %v", ErrEncode, item.ID, err)
	}
	data, err := json.Marshal(itemRecord{
		ID:         item.ID,
		CompanyID:  item.CompanyID,
		Mutation:   mutation,
		EnqueuedAt: item.EnqueuedAt,
		RetryCount: item.RetryCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: %v", ErrEncode, item.ID, err)
	}
	return data, nil
}

func decodeItem(data []byte) (*domain.SyncQueueItem, error) {
	var rec itemRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	mutation, err := domain.UnmarshalMutation(rec.Mutation)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: %w", ErrDecode, rec.ID, err)
	}
	return &domain.SyncQueueItem{
		ID:         rec.ID,
		CompanyID:  rec.CompanyID,
		Mutation:   mutation,
		EnqueuedAt: rec.EnqueuedAt,
		RetryCount: rec.RetryCount,
	}, nil
}
