package pipeline

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// SoftDelete помечает запись удаленной и убирает ее из индекса
func (s *Service) SoftDelete(ctx context.Context, appointmentID string) (*Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SoftDeleteAppointment: company=%s, appointment=%s", companyID, appointmentID)

	if appointmentID == "" {
		return nil, invalid("appointmentId", "required")
	}

	unlock := s.lock(companyID, appointmentID)
	defer unlock()

	// 1. Текущее состояние записи
	current, err := s.current(ctx, "SoftDeleteAppointment", companyID, appointmentID)
	if err != nil {
		return nil, err
	}

	// 2. Применяем и сохраняем
	now := s.timeProvider.Now()
	next := current.Clone()
	next.DeletedAt = &now
	next.UpdatedAt = now

	state, err := s.apply(ctx, change{
		operation:   "SoftDeleteAppointment",
		kind:        domain.MutationDelete,
		companyID:   companyID,
		appointment: next,
		removals:    []string{next.ID},
		mutations:   []domain.Mutation{domain.DeleteMutation{ID: next.ID, DeletedAt: now}},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome:     conflict.OutcomeAccepted,
		State:       state,
		Appointment: next,
		Suggestions: s.suggest(ctx, companyID, current),
	}, nil
}

// Restore возвращает запись из корзины. Если время уже занято,
// восстановление проходит через проверку конфликтов
func (s *Service) Restore(ctx context.Context, req *RestoreRequest) (*Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RestoreAppointment: company=%s, appointment=%s", companyID, req.AppointmentID)

	if req.AppointmentID == "" {
		return nil, invalid("appointmentId", "required")
	}
	if err := validateResolution(req.Resolution); err != nil {
		return nil, err
	}

	unlock := s.lock(companyID, req.AppointmentID)
	defer unlock()

	// 1. Удаленные записи есть только в хранилище
	if !s.connectivity.IsOnline() {
		s.logger.Warn("RestoreAppointment: store is offline")
		return nil, ErrStoreUnavailable
	}
	current, err := s.fetch(ctx, "RestoreAppointment", companyID, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	// 2. Проверка корзины
	now := s.timeProvider.Now()
	if !current.IsDeleted() {
		s.logger.Warn("RestoreAppointment: appointment=%s is not deleted", current.ID)
		return nil, ErrNotDeleted
	}
	if now.Sub(*current.DeletedAt) > domain.TrashRetention {
		s.logger.Warn("RestoreAppointment: appointment=%s deleted at %s, retention expired",
			current.ID, current.DeletedAt.Format(domain.DateFormat))
		return nil, ErrRetentionExpired
	}

	next := current.Clone()
	next.DeletedAt = nil
	next.UpdatedAt = now

	// 3. Время могли занять, пока запись была в корзине
	p := &placement{}
	if next.OccupiesGrid() {
		var result *Result
		p, result, err = s.place(ctx, "RestoreAppointment", companyID, conflict.Candidate{
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

	mutations := append(p.mutations(), domain.RestoreMutation{ID: next.ID})
	if next.Overbooked != current.Overbooked {
		mutations = append(mutations, domain.MoveMutation{
			ID:             next.ID,
			ProfessionalID: next.ProfessionalID,
			StartAt:        next.StartAt,
			EndAt:          next.EndAt,
			Overbooked:     next.Overbooked,
		})
	}

	// 4. Применяем и сохраняем
	state, err := s.apply(ctx, change{
		operation:   "RestoreAppointment",
		kind:        domain.MutationRestore,
		companyID:   companyID,
		appointment: next,
		upserts:     append(p.displaced, next),
		mutations:   mutations,
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

// Trash возвращает записи, удаленные в пределах срока хранения
func (s *Service) Trash(ctx context.Context) ([]*domain.Appointment, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	since := s.timeProvider.Now().Add(-domain.TrashRetention)
	appointments, err := s.store.ListDeleted(ctx, companyID, since)
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("Trash: store unavailable for company=%s: %v", companyID, err)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.logger.Error("Trash: failed to list deleted appointments for company=%s: %v", companyID, err)
		return nil, fmt.Errorf("%w: Trash - list deleted: %v", ErrInternal, err)
	}

	s.logger.Info("Trash: %d appointment(s) for company=%s", len(appointments), companyID)
	return appointments, nil
}
