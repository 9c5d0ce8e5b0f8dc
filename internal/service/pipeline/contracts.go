package pipeline

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
)

// Store хранилище записей с разграничением по компании
type Store interface {
	domain.MutationStore
	GetAppointment(ctx context.Context, companyID, id string) (*domain.Appointment, error)
	LoadDayAppointments(ctx context.Context, companyID string, from, to time.Time) ([]*domain.Appointment, error)
	ListDeleted(ctx context.Context, companyID string, since time.Time) ([]*domain.Appointment, error)
}

// ScheduleIndex локальное представление агенды
type ScheduleIndex interface {
	Get(companyID, id string) (*domain.Appointment, bool)
	Upsert(companyID string, a *domain.Appointment) schedule.Undo
	Remove(companyID, id string) schedule.Undo
	Revert(undos ...schedule.Undo)
	Load(companyID string, day time.Time, appointments []*domain.Appointment)
	Merge(companyID string, day time.Time, appointments []*domain.Appointment)
	IsLoaded(companyID string, day time.Time) bool
	Day(companyID string, day time.Time) schedule.DayView
	AppointmentsFor(companyID, professionalID string, day time.Time) schedule.DayView
	Location() *time.Location
}

// ConflictResolver проверка пересечений
type ConflictResolver interface {
	Resolve(companyID string, c conflict.Candidate, allowOverbooking bool) conflict.Decision
}

// CatalogReader справочник услуг и профессионалов
type CatalogReader interface {
	GetProfessional(ctx context.Context, companyID, id string) (*domain.Professional, error)
	GetServices(ctx context.Context, companyID string, ids []string) ([]domain.Service, error)
}

// SettingsProvider настройки агенды компании
type SettingsProvider interface {
	GetAgendaSettings(ctx context.Context, companyID string) (*domain.AgendaSettings, error)
}

// SyncQueue очередь мутаций, ожидающих синхронизации
type SyncQueue interface {
	Enqueue(ctx context.Context, companyID string, mutations ...domain.Mutation) ([]string, error)
	Len(ctx context.Context) (int, error)
}

// Connectivity состояние связи с хранилищем
type Connectivity interface {
	IsOnline() bool
	// MarkOffline переводит связь в offline до следующей успешной проверки
	MarkOffline(cause error)
}

// SlotAdvisor кандидаты на освободившееся время
type SlotAdvisor interface {
	SuggestForSlot(ctx context.Context, companyID, professionalID string, at time.Time) (*domain.SlotSuggestions, error)
}

// EventPublisher наблюдатели агенды
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}

// MetricsRecorder метрики пайплайна
type MetricsRecorder interface {
	ObserveConflict(outcome string)
	IncRollback(operation string)
	IncQueued(kind string)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
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
