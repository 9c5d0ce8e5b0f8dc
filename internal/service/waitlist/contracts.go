package waitlist

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// WaitlistRepository интерфейс для работы с листом ожидания
type WaitlistRepository interface {
	List(ctx context.Context, companyID string) ([]*domain.WaitlistEntry, error)
	ListForProfessional(ctx context.Context, companyID, professionalID string) ([]*domain.WaitlistEntry, error)
	MaxPosition(ctx context.Context, companyID string) (int, error)
	Insert(ctx context.Context, e *domain.WaitlistEntry) error
	Delete(ctx context.Context, companyID, id string) error
	UpdatePositions(ctx context.Context, companyID string, ids []string) error
}

// RecentClientsReader интерфейс для подбора недавних клиентов
type RecentClientsReader interface {
	RecentClients(ctx context.Context, companyID, excludeProfessionalID string, since time.Time, limit int) ([]*domain.RecentClient, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
