package syncqueue

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
)

// QueueStore долговременное хранилище элементов очереди
type QueueStore interface {
	Append(ctx context.Context, items ...*domain.SyncQueueItem) error
	List(ctx context.Context) ([]*domain.SyncQueueItem, error)
	SaveRetry(ctx context.Context, id string, retryCount int) error
	Remove(ctx context.Context, id string) error
	Len(ctx context.Context) (int, error)
}

// Connectivity сообщает, доступно ли хранилище записей
type Connectivity interface {
	IsOnline() bool
}

// EventPublisher интерфейс для уведомления наблюдателей
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}

// MetricsRecorder интерфейс для метрик очереди
type MetricsRecorder interface {
	IncSyncDropped(kind string)
	ObserveDrain(d time.Duration)
}

// TransactionManager интерфейс для выполнения мутации в транзакции
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реализация TimeProvider с реальным временем
type RealTimeProvider struct{}

func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}
