package pipeline

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// Move переносит запись на профессионала/время. Конец пересчитывается
// от текущего списка услуг; StartAt == nil переводит запись в walk-in
func (s *Service) Move(ctx context.Context, req *MoveRequest) (*Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("MoveAppointment: company=%s, appointment=%s, professional=%s", companyID, req.AppointmentID, req.ProfessionalID)

	// 1. Валидация входных данных
	if err := validateMove(req); err != nil {
		s.logger.Warn("MoveAppointment: validation failed: %v", err)
		return nil, err
	}

	unlock := s.lock(companyID, req.AppointmentID)
	defer unlock()

	// 2. Текущее состояние записи
	current, err := s.current(ctx, "MoveAppointment", companyID, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		s.logger.Warn("MoveAppointment: appointment=%s has terminal status=%s", current.ID, current.Status)
		return nil, &ValidationError{Field: "status", Reason: "terminal appointment cannot be placed", Err: ErrInvalidTransition}
	}

	if req.StartAt != nil && domain.TotalDuration(current.Services) == 0 {
		s.logger.Warn("MoveAppointment: appointment=%s has zero total duration", current.ID)
		return nil, invalid("serviceIds", "total duration is zero")
	}

	// 3. Новое состояние
	next := current.Clone()
	if req.ProfessionalID != "" && req.ProfessionalID != current.ProfessionalID {
		professional, err := s.professional(ctx, "MoveAppointment", companyID, req.ProfessionalID)
		if err != nil {
			return nil, err
		}
		next.ProfessionalID = professional.ID
		next.ProfessionalName = professional.Name
	}
	next.Reschedule(req.StartAt)
	next.Overbooked = false
	next.UpdatedAt = s.timeProvider.Now()

	// 4. Проверка конфликтов на новом месте
	p := &placement{}
	if !next.IsWalkIn() {
		var result *Result
		p, result, err = s.place(ctx, "MoveAppointment", companyID, conflict.Candidate{
			ProfessionalID: next.ProfessionalID,
			Start:          *next.StartAt,
			End:            *next.EndAt,
			ExcludeIDs:     []string{next.ID},
		}, req.Resolution)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		defer p.release()
		next.Overbooked = p.overbooked
	}

	// 5. Применяем и сохраняем
	state, err := s.apply(ctx, change{
		operation:   "MoveAppointment",
		kind:        domain.MutationMove,
		companyID:   companyID,
		appointment: next,
		upserts:     append(p.displaced, next),
		mutations: append(p.mutations(), domain.MoveMutation{
			ID:             next.ID,
			ProfessionalID: next.ProfessionalID,
			StartAt:        next.StartAt,
			EndAt:          next.EndAt,
			Overbooked:     next.Overbooked,
		}),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome:     conflict.OutcomeAccepted,
		State:       state,
		Appointment: next,
		Displaced:   p.displaced,
	}, nil
}
