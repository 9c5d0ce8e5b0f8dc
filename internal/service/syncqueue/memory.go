package syncqueue

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// MemoryStore очередь в памяти процесса, без redis
type MemoryStore struct {
	mu    sync.Mutex
	items []*domain.SyncQueueItem
}

// NewMemoryStore создает пустую очередь в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, items ...*domain.SyncQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		copied := *item
		s.items = append(s.items, &copied)
	}
	return nil
}

func (s *MemoryStore) List(context.Context) ([]*domain.SyncQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.SyncQueueItem, len(s.items))
	for i, item := range s.items {
		copied := *item
		out[i] = &copied
	}
	return out, nil
}

func (s *MemoryStore) SaveRetry(_ context.Context, id string, retryCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			item.RetryCount = retryCount
		}
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}
