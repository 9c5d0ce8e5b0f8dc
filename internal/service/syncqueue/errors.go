package syncqueue

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

var (
	// ErrSyncExhausted мутация превысила лимит попыток и удалена из очереди
	ErrSyncExhausted = errors.New("syncqueue: retry ceiling exceeded")
	// ErrQueueStore ошибка хранилища очереди
	ErrQueueStore = errors.New("syncqueue: queue store failed")
)

// SyncExhaustedError сигнал о безвозвратно потерянной мутации
type SyncExhaustedError struct {
	ItemID        string
	CompanyID     string
	AppointmentID string
	Kind          domain.MutationKind
	Attempts      int
	Err           error
}

func (e *SyncExhaustedError) Error() string {
	return fmt.Sprintf("syncqueue: %s of appointment %s dropped after %d attempts: %v",
		e.Kind, e.AppointmentID, e.Attempts, e.Err)
}

func (e *SyncExhaustedError) Unwrap() []error {
	return []error{ErrSyncExhausted, e.Err}
}
