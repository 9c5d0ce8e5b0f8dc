package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	waitlistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// Service лист ожидания компании
type Service struct {
	repo         WaitlistRepository
	recent       RecentClientsReader
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса листа ожидания
// nil timeProvider означает реальное время
func NewService(repo WaitlistRepository, recent RecentClientsReader, txManager TransactionManager, timeProvider TimeProvider, logger Logger) *Service {
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	return &Service{
		repo:         repo,
		recent:       recent,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// List возвращает лист ожидания в порядке предложения
func (s *Service) List(ctx context.Context) ([]*domain.WaitlistEntry, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx, companyID)
	if err != nil {
		s.logger.Error("ListWaitlist: failed to list company=%s: %v", companyID, err)
		return nil, fmt.Errorf("%w: List - list entries: %v", ErrInternal, err)
	}
	return Rank(entries), nil
}

// Add добавляет клиента в конец листа компании
func (s *Service) Add(ctx context.Context, req *AddRequest) (*domain.WaitlistEntry, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddToWaitlist: company=%s, client=%s, priority=%s", companyID, req.ClientID, req.Priority)

	// 1. Валидация входных данных
	if req.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", ErrInvalidInput)
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}
	if req.ProfessionalID != nil && *req.ProfessionalID == "" {
		req.ProfessionalID = nil
	}

	entry := &domain.WaitlistEntry{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		DesiredDate:    req.DesiredDate,
		Priority:       priority,
		Notes:          req.Notes,
		CreatedAt:      s.timeProvider.Now(),
	}

	// 2. Позиция max+1 и вставка в одной сериализуемой транзакции
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		last, err := s.repo.MaxPosition(txCtx, companyID)
		if err != nil {
			return err
		}
		entry.Position = last + 1
		return s.repo.Insert(txCtx, entry)
	})
	if err != nil {
		s.logger.Error("AddToWaitlist: failed to add client=%s: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: Add - insert entry: %v", ErrInternal, err)
	}

	s.logger.Info("AddToWaitlist: entry=%s added at position %d", entry.ID, entry.Position)
	return entry, nil
}

// Remove удаляет запись из листа
func (s *Service) Remove(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("RemoveFromWaitlist: company=%s, entry=%s", companyID, id)

	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		s.logger.Error("RemoveFromWaitlist: failed to delete entry=%s: %v", id, err)
		return fmt.Errorf("%w: Remove - delete entry: %v", ErrInternal, err)
	}
	return nil
}

// Reorder перенумеровывает позиции в заданном порядке. Это полная перенумерация,
// при одновременных перестановках выигрывает последняя
func (s *Service) Reorder(ctx context.Context, orderedIDs []string) error {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("ReorderWaitlist: company=%s, entries=%d", companyID, len(orderedIDs))

	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if id == "" {
			return fmt.Errorf("%w: empty entry id", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate entry id %s", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		return s.repo.UpdatePositions(txCtx, companyID, orderedIDs)
	})
	if err != nil {
		s.logger.Error("ReorderWaitlist: failed to update positions: %v", err)
		return fmt.Errorf("%w: Reorder - update positions: %v", ErrInternal, err)
	}
	return nil
}

// SuggestForSlot подбирает кандидатов на освободившееся время: записи листа
// ожидания, подходящие профессионалу, и недавних клиентов других профессионалов
func (s *Service) SuggestForSlot(ctx context.Context, companyID, professionalID string, at time.Time) (*domain.SlotSuggestions, error) {
	s.logger.Info("SuggestForSlot: company=%s, professional=%s, at=%s", companyID, professionalID, at.Format(time.RFC3339))

	entries, err := s.repo.ListForProfessional(ctx, companyID, professionalID)
	if err != nil {
		s.logger.Error("SuggestForSlot: failed to list waitlist: %v", err)
		return nil, fmt.Errorf("%w: SuggestForSlot - list waitlist: %v", ErrInternal, err)
	}
	ranked := Rank(entries)
	if len(ranked) > domain.WaitlistSuggestionLimit {
		ranked = ranked[:domain.WaitlistSuggestionLimit]
	}

	// Недавние клиенты носят справочный характер, их ошибка не прерывает подбор
	since := s.timeProvider.Now().Add(-domain.RecentClientWindow)
	recent, err := s.recent.RecentClients(ctx, companyID, professionalID, since, domain.RecentClientSuggestionLimit)
	if err != nil {
		s.logger.Warn("SuggestForSlot: failed to load recent clients: %v", err)
		recent = nil
	}

	return &domain.SlotSuggestions{Waitlist: ranked, RecentClients: recent}, nil
}
