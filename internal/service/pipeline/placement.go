package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
)

// placement принятое размещение на сетке
type placement struct {
	overbooked bool
	displaced  []*domain.Appointment

	unlocks []func()
}

// mutations переводы вытесненных записей в очередь walk-in
func (p *placement) mutations() []domain.Mutation {
	out := make([]domain.Mutation, 0, len(p.displaced))
	for _, d := range p.displaced {
		out = append(out, domain.MoveMutation{ID: d.ID, ProfessionalID: d.ProfessionalID})
	}
	return out
}

// release освобождает блокировки вытесненных записей
func (p *placement) release() {
	if p == nil {
		return
	}
	for _, unlock := range p.unlocks {
		unlock()
	}
	p.unlocks = nil
}

// place проверяет кандидата и применяет решение пользователя.
// Если размещение не принято, возвращает результат без применения.
// Вызывающая сторона освобождает placement через release после apply
func (s *Service) place(ctx context.Context, operation, companyID string, candidate conflict.Candidate, resolution *Resolution) (*placement, *Result, error) {
	// 1. Дни кандидата должны быть сверены с хранилищем
	if err := s.ensureDays(ctx, operation, companyID, candidate); err != nil {
		return nil, nil, err
	}

	settings := s.settingsFor(ctx, companyID)

	decision := s.resolver.Resolve(companyID, candidate, settings.AllowOverbooking)
	s.metrics.ObserveConflict(string(decision.Outcome))

	switch decision.Outcome {
	case conflict.OutcomeAccepted:
		return &placement{}, nil, nil
	case conflict.OutcomeRejected:
		s.logger.Warn("%s: rejected, professional=%s busy with appointment=%s", operation, candidate.ProfessionalID, decision.Conflict.ID)
		return nil, &Result{Outcome: conflict.OutcomeRejected, Conflict: decision.Conflict}, nil
	}

	if resolution == nil {
		s.logger.Info("%s: decision required, conflict with appointment=%s", operation, decision.Conflict.ID)
		return nil, &Result{Outcome: conflict.OutcomeRequiresDecision, Conflict: decision.Conflict}, nil
	}

	if resolution.Choice == ChoiceForceOverbook {
		s.logger.Info("%s: overbooking over appointment=%s", operation, decision.Conflict.ID)
		return &placement{overbooked: true}, nil, nil
	}

	// 2. Substitute: вытесняем только те записи, на которые согласился пользователь
	agreed := make(map[string]struct{}, len(resolution.DisplaceIDs))
	for _, id := range resolution.DisplaceIDs {
		agreed[id] = struct{}{}
	}
	var displace []*domain.Appointment
	for _, a := range decision.Conflicts {
		if _, ok := agreed[a.ID]; ok {
			displace = append(displace, a)
		}
	}
	if len(displace) == 0 {
		s.logger.Info("%s: substitute does not cover appointment=%s", operation, decision.Conflict.ID)
		return nil, &Result{Outcome: conflict.OutcomeRequiresDecision, Conflict: decision.Conflict}, nil
	}

	// 3. Вытесняемые записи блокируются и перечитываются под блокировкой
	p := &placement{}
	var fresh []*domain.Appointment
	for _, a := range displace {
		unlock, ok := s.locks.TryLock(companyID + "/" + a.ID)
		if !ok {
			p.release()
			s.logger.Warn("%s: appointment=%s is being changed concurrently", operation, a.ID)
			return nil, &Result{Outcome: conflict.OutcomeRequiresDecision, Conflict: a}, nil
		}
		p.unlocks = append(p.unlocks, unlock)

		current, ok := s.index.Get(companyID, a.ID)
		if !ok || !current.OccupiesGrid() || current.ProfessionalID != candidate.ProfessionalID ||
			!domain.Overlaps(candidate.Start, candidate.End, *current.StartAt, *current.EndAt) {
			continue
		}
		fresh = append(fresh, current)
	}

	retry := candidate
	retry.ExcludeIDs = append(append([]string(nil), candidate.ExcludeIDs...), ids(fresh)...)
	remaining := s.resolver.Resolve(companyID, retry, settings.AllowOverbooking)
	if remaining.HasConflict() {
		p.release()
		s.logger.Info("%s: substitute leaves conflict with appointment=%s", operation, remaining.Conflict.ID)
		return nil, &Result{Outcome: conflict.OutcomeRequiresDecision, Conflict: remaining.Conflict}, nil
	}

	now := s.timeProvider.Now()
	for _, d := range fresh {
		d.Reschedule(nil)
		d.Overbooked = false
		d.UpdatedAt = now
		p.displaced = append(p.displaced, d)
	}
	s.logger.Info("%s: substitute displaces %d appointment(s) to walk-in", operation, len(p.displaced))
	return p, nil, nil
}

// ensureDays подгружает из хранилища дни, которые проверяет резолвер:
// накануне, день начала и день конца кандидата
func (s *Service) ensureDays(ctx context.Context, operation, companyID string, candidate conflict.Candidate) error {
	if !s.connectivity.IsOnline() {
		return nil
	}

	loc := s.index.Location()
	seen := make(map[time.Time]struct{}, 3)
	for _, t := range []time.Time{candidate.Start.Add(-24 * time.Hour), candidate.Start, candidate.End} {
		from := domain.DayStart(t, loc)
		if _, ok := seen[from]; ok {
			continue
		}
		seen[from] = struct{}{}
		if s.index.IsLoaded(companyID, from) {
			continue
		}

		appointments, err := s.loadRange(ctx, companyID, from, from.AddDate(0, 0, 1))
		if err != nil {
			if isUnavailable(err) {
				s.logger.Warn("%s: store unavailable loading date=%s, checking index only: %v", operation, from.Format(domain.DateFormat), err)
				return nil
			}
			s.logger.Error("%s: failed to load date=%s: %v", operation, from.Format(domain.DateFormat), err)
			return fmt.Errorf("%w: %s - load day: %v", ErrInternal, operation, err)
		}
		s.index.Merge(companyID, from, appointments)
	}
	return nil
}

func (s *Service) loadRange(ctx context.Context, companyID string, from, to time.Time) ([]*domain.Appointment, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	return s.store.LoadDayAppointments(readCtx, companyID, from, to)
}

func ids(appointments []*domain.Appointment) []string {
	out := make([]string, len(appointments))
	for i, a := range appointments {
		out[i] = a.ID
	}
	return out
}
