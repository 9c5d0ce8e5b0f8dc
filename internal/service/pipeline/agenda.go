package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// LoadDay загружает день компании из хранилища в индекс
func (s *Service) LoadDay(ctx context.Context, date time.Time) (schedule.DayView, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return schedule.DayView{}, err
	}

	from := domain.DayStart(date, s.index.Location())
	to := from.AddDate(0, 0, 1)

	readCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	appointments, err := s.store.LoadDayAppointments(readCtx, companyID, from, to)
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("LoadDay: store unavailable for company=%s, date=%s: %v", companyID, from.Format(domain.DateFormat), err)
			return schedule.DayView{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.logger.Error("LoadDay: failed to load company=%s, date=%s: %v", companyID, from.Format(domain.DateFormat), err)
		return schedule.DayView{}, fmt.Errorf("%w: LoadDay - load appointments: %v", ErrInternal, err)
	}

	s.index.Load(companyID, from, appointments)
	s.logger.Info("LoadDay: loaded %d appointment(s) for company=%s, date=%s", len(appointments), companyID, from.Format(domain.DateFormat))

	return s.index.Day(companyID, from), nil
}

// Agenda возвращает день из индекса, предварительно обновив его из хранилища.
// Пока в очереди есть несинхронизированные мутации, индекс не перезаписывается
func (s *Service) Agenda(ctx context.Context, date time.Time, professionalID string) (schedule.DayView, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return schedule.DayView{}, err
	}

	if s.connectivity.IsOnline() && !s.hasPending(ctx) {
		if _, err := s.LoadDay(ctx, date); err != nil {
			if !errors.Is(err, ErrStoreUnavailable) {
				return schedule.DayView{}, err
			}
			s.logger.Warn("Agenda: serving index for company=%s: %v", companyID, err)
		}
	}

	if professionalID != "" {
		return s.index.AppointmentsFor(companyID, professionalID, date), nil
	}
	return s.index.Day(companyID, date), nil
}

func (s *Service) hasPending(ctx context.Context) bool {
	pending, err := s.queue.Len(ctx)
	if err != nil {
		s.logger.Warn("Agenda: failed to read sync queue length: %v", err)
		return true
	}
	return pending > 0
}
