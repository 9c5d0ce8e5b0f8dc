package pipeline

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
)

// State состояние примененной мутации
type State string

const (
	StateConfirmed   State = "confirmed"
	StatePendingSync State = "pending_sync"
)

// Choice решение пользователя по конфликту
type Choice string

const (
	// ChoiceSubstitute вытесняет пересекающиеся записи в очередь walk-in
	ChoiceSubstitute Choice = "substitute"
	// ChoiceForceOverbook ставит запись поверх с флагом overbooked
	ChoiceForceOverbook Choice = "force_overbook"
)

// IsValid returns true for known choices
func (c Choice) IsValid() bool {
	return c == ChoiceSubstitute || c == ChoiceForceOverbook
}

// Resolution ответ на RequiresDecision
type Resolution struct {
	Choice Choice
	// DisplaceIDs записи, которые пользователь согласился вытеснить (для substitute)
	DisplaceIDs []string
}

// CreateRequest создание записи
type CreateRequest struct {
	ProfessionalID string
	ClientID       *string
	ClientName     *string
	ServiceIDs     []string
	StartAt        *time.Time // nil = walk-in
	Notes          *string
	Resolution     *Resolution

	// WithinTx выполняется в той же транзакции, что и вставка записи.
	// Запрос с WithinTx не уходит в очередь синхронизации
	WithinTx func(ctx context.Context) error
}

// MoveRequest перенос записи
type MoveRequest struct {
	AppointmentID  string
	ProfessionalID string     // пусто = тот же профессионал
	StartAt        *time.Time // nil = в очередь walk-in
	Resolution     *Resolution
}

// StatusRequest смена статуса
type StatusRequest struct {
	AppointmentID string
	Status        domain.AppointmentStatus
}

// RestoreRequest восстановление из корзины
type RestoreRequest struct {
	AppointmentID string
	Resolution    *Resolution
}

// Result типизированный исход мутации. State пуст, если мутация не применялась
// (конфликт без решения или отказ)
type Result struct {
	Outcome     conflict.Outcome
	State       State
	Appointment *domain.Appointment

	// Conflict самая ранняя пересекающаяся запись
	Conflict  *domain.Appointment
	Displaced []*domain.Appointment

	LateCancellation   bool
	SuggestedNextVisit *time.Time
	Suggestions        *domain.SlotSuggestions
}

// Applied returns true if the mutation reached the schedule index
func (r *Result) Applied() bool {
	return r.State != ""
}
