package pipeline

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// SetStatus меняет статус записи без пересчета времени.
// Из нетерминального статуса допустим любой, из терминального никакой
func (s *Service) SetStatus(ctx context.Context, req *StatusRequest) (*Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SetStatus: company=%s, appointment=%s, status=%s", companyID, req.AppointmentID, req.Status)

	// 1. Валидация входных данных
	if err := validateStatus(req); err != nil {
		s.logger.Warn("SetStatus: validation failed: %v", err)
		return nil, err
	}

	unlock := s.lock(companyID, req.AppointmentID)
	defer unlock()

	// 2. Текущее состояние и проверка перехода
	current, err := s.current(ctx, "SetStatus", companyID, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if current.Status == req.Status {
		s.logger.Info("SetStatus: appointment=%s already has status=%s", current.ID, current.Status)
		return &Result{Outcome: conflict.OutcomeAccepted, State: StateConfirmed, Appointment: current}, nil
	}
	if current.Status.IsTerminal() {
		s.logger.Warn("SetStatus: appointment=%s cannot leave terminal status=%s", current.ID, current.Status)
		return nil, &ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot change terminal status %s to %s", current.Status, req.Status),
			Err:    ErrInvalidTransition,
		}
	}

	// 3. Новое состояние и подсказки по настройкам компании
	now := s.timeProvider.Now()
	next := current.Clone()
	next.Status = req.Status
	next.UpdatedAt = now

	result := &Result{Outcome: conflict.OutcomeAccepted, Appointment: next}
	settings := s.settingsFor(ctx, companyID)
	switch req.Status {
	case domain.StatusCanceled:
		if current.StartAt != nil {
			result.LateCancellation = settings.IsLateCancellation(*current.StartAt, now)
		}
	case domain.StatusDone:
		visit := now
		if current.StartAt != nil {
			visit = *current.StartAt
		}
		suggested := settings.SuggestNextVisit(visit)
		result.SuggestedNextVisit = &suggested
	}

	// 4. Применяем и сохраняем
	result.State, err = s.apply(ctx, change{
		operation:   "SetStatus",
		kind:        domain.MutationStatus,
		companyID:   companyID,
		appointment: next,
		upserts:     []*domain.Appointment{next},
		mutations:   []domain.Mutation{domain.StatusMutation{ID: next.ID, Status: next.Status}},
	})
	if err != nil {
		return nil, err
	}

	// 5. Отмена освобождает время, предлагаем лист ожидания
	if req.Status == domain.StatusCanceled {
		result.Suggestions = s.suggest(ctx, companyID, current)
	}
	return result, nil
}
