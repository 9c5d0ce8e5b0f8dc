package events

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// Type вид события агенды
type Type string

const (
	// TypeApplied мутация применена к индексу до подтверждения хранилищем
	TypeApplied Type = "appointment.applied"
	// TypeConfirmed хранилище подтвердило мутацию
	TypeConfirmed Type = "appointment.confirmed"
	// TypePendingSync мутация ждет синхронизации в очереди
	TypePendingSync Type = "appointment.pending_sync"
	// TypeRolledBack хранилище отклонило мутацию, индекс откатан
	TypeRolledBack Type = "appointment.rolled_back"
	// TypeSynced мутация из очереди сохранена
	TypeSynced Type = "sync.succeeded"
	// TypeSyncExhausted мутация удалена из очереди после исчерпания попыток
	TypeSyncExhausted Type = "sync.exhausted"
)

// Event уведомление наблюдателям агенды
type Event struct {
	Type          Type
	CompanyID     string
	Kind          domain.MutationKind
	AppointmentID string
	Appointment   *domain.Appointment
	Attempts      int
	Reason        string
	OccurredAt    time.Time
}

// Subscriber наблюдатель событий
type Subscriber interface {
	Handle(ctx context.Context, e Event)
}

// SubscriberFunc адаптер функции к Subscriber
type SubscriberFunc func(ctx context.Context, e Event)

func (f SubscriberFunc) Handle(ctx context.Context, e Event) {
	f(ctx, e)
}

// Bus синхронно рассылает события всем подписчикам в порядке подписки
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewBus создает пустую шину
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe добавляет подписчика
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Publish передает событие подписчикам. Подписчик получает копию записи
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subscribers := append([]Subscriber(nil), b.subscribers...)
	b.mu.RUnlock()

	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	for _, s := range subscribers {
		copied := e
		copied.Appointment = e.Appointment.Clone()
		s.Handle(ctx, copied)
	}
}
