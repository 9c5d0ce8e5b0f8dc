package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// Create создает запись. Walk-in записи (без StartAt) не проверяются на конфликты
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateAppointment: company=%s, professional=%s, services=%d, walkIn=%t",
		companyID, req.ProfessionalID, len(req.ServiceIDs), req.StartAt == nil)

	// 1. Валидация входных данных
	if err := validateCreate(req); err != nil {
		s.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Профессионал и услуги из справочника
	professional, err := s.professional(ctx, "CreateAppointment", companyID, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	services, err := s.services(ctx, companyID, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	if req.StartAt != nil && domain.TotalDuration(services) == 0 {
		return nil, invalid("serviceIds", "total duration is zero")
	}

	// 3. Собираем запись, конец считается от списка услуг
	now := s.timeProvider.Now()
	a := &domain.Appointment{
		ID:               uuid.NewString(),
		CompanyID:        companyID,
		ProfessionalID:   professional.ID,
		ClientID:         req.ClientID,
		Services:         services,
		Status:           domain.StatusScheduled,
		Notes:            req.Notes,
		ClientName:       req.ClientName,
		ProfessionalName: professional.Name,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	a.Reschedule(req.StartAt)

	// 4. Проверка конфликтов
	p := &placement{}
	if !a.IsWalkIn() {
		var result *Result
		p, result, err = s.place(ctx, "CreateAppointment", companyID, conflict.Candidate{
			ProfessionalID: a.ProfessionalID,
			Start:          *a.StartAt,
			End:            *a.EndAt,
			ExcludeIDs:     []string{a.ID},
		}, req.Resolution)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		defer p.release()
		a.Overbooked = p.overbooked
	}

	// 5. Применяем и сохраняем
	state, err := s.apply(ctx, change{
		operation:   "CreateAppointment",
		kind:        domain.MutationCreate,
		companyID:   companyID,
		appointment: a,
		upserts:     append(p.displaced, a),
		mutations:   append(p.mutations(), domain.CreateMutation{Appointment: a}),
		withinTx:    req.WithinTx,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Outcome:     conflict.OutcomeAccepted,
		State:       state,
		Appointment: a,
		Displaced:   p.displaced,
	}, nil
}

func (s *Service) professional(ctx context.Context, operation, companyID, id string) (*domain.Professional, error) {
	professional, err := s.catalog.GetProfessional(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrProfessionalNotFound) {
			s.logger.Warn("%s: professional=%s not found", operation, id)
			return nil, invalid("professionalId", "not found")
		}
		s.logger.Error("%s: failed to get professional=%s: %v", operation, id, err)
		return nil, fmt.Errorf("%w: %s - get professional: %v", ErrInternal, operation, err)
	}
	if !professional.Active {
		s.logger.Warn("%s: professional=%s is inactive", operation, id)
		return nil, invalid("professionalId", "inactive")
	}
	return professional, nil
}

func (s *Service) services(ctx context.Context, companyID string, ids []string) ([]domain.Service, error) {
	services, err := s.catalog.GetServices(ctx, companyID, ids)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			s.logger.Warn("CreateAppointment: services not found: %v", err)
			return nil, invalid("serviceIds", "not found")
		}
		s.logger.Error("CreateAppointment: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: CreateAppointment - get services: %v", ErrInternal, err)
	}
	return services, nil
}
