package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
	"github.com/m04kA/SMC-AgendaService/pkg/txmanager"
)

// DefaultPersistTimeout таймаут записи в хранилище по умолчанию
const DefaultPersistTimeout = 5 * time.Second

// ErrStoreUnavailable возвращается, когда операция требует чтения из недоступного хранилища
var ErrStoreUnavailable = errors.New("pipeline: store unavailable")

// Config настройки пайплайна
type Config struct {
	PersistTimeout time.Duration
}

// Dependencies зависимости пайплайна
type Dependencies struct {
	Store        Store
	Index        ScheduleIndex
	Resolver     ConflictResolver
	Catalog      CatalogReader
	Settings     SettingsProvider
	Queue        SyncQueue
	Connectivity Connectivity
	Advisor      SlotAdvisor // опционально
	Publisher    EventPublisher
	Metrics      MetricsRecorder
	TxManager    TransactionManager
	TimeProvider TimeProvider // опционально, по умолчанию реальное время
	Logger       Logger
}

// Service пайплайн мутаций агенды: валидация, проверка конфликтов,
// оптимистичное применение к индексу, сохранение или постановка в очередь, откат
type Service struct {
	store        Store
	index        ScheduleIndex
	resolver     ConflictResolver
	catalog      CatalogReader
	settings     SettingsProvider
	queue        SyncQueue
	connectivity Connectivity
	advisor      SlotAdvisor
	publisher    EventPublisher
	metrics      MetricsRecorder
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger

	persistTimeout time.Duration
	locks          *keyedMutex
}

// NewService создает новый экземпляр пайплайна
func NewService(deps Dependencies, cfg Config) *Service {
	timeProvider := deps.TimeProvider
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	persistTimeout := cfg.PersistTimeout
	if persistTimeout <= 0 {
		persistTimeout = DefaultPersistTimeout
	}

	return &Service{
		store:          deps.Store,
		index:          deps.Index,
		resolver:       deps.Resolver,
		catalog:        deps.Catalog,
		settings:       deps.Settings,
		queue:          deps.Queue,
		connectivity:   deps.Connectivity,
		advisor:        deps.Advisor,
		publisher:      deps.Publisher,
		metrics:        deps.Metrics,
		txManager:      deps.TxManager,
		timeProvider:   timeProvider,
		logger:         deps.Logger,
		persistTimeout: persistTimeout,
		locks:          newKeyedMutex(),
	}
}

// change набор изменений одной мутации
type change struct {
	operation   string
	kind        domain.MutationKind
	companyID   string
	appointment *domain.Appointment

	upserts   []*domain.Appointment
	removals  []string
	mutations []domain.Mutation
	withinTx  func(ctx context.Context) error
}

// apply применяет изменения к индексу до подтверждения и доводит их до хранилища.
// Недоступное хранилище означает постановку в очередь, отказ хранилища означает откат
func (s *Service) apply(ctx context.Context, c change) (State, error) {
	// 1. Операции с WithinTx не могут ждать в очереди
	online := s.connectivity.IsOnline()
	if c.withinTx != nil && !online {
		s.logger.Warn("%s: appointment=%s requires connectivity, store is offline", c.operation, c.appointment.ID)
		return "", ErrOfflineConversion
	}

	// 2. Оптимистичное применение к индексу
	undos := make([]schedule.Undo, 0, len(c.upserts)+len(c.removals))
	for _, a := range c.upserts {
		undos = append(undos, s.index.Upsert(c.companyID, a))
	}
	for _, id := range c.removals {
		undos = append(undos, s.index.Remove(c.companyID, id))
	}
	s.publish(ctx, events.TypeApplied, c, "")

	// 3. Без связи мутация уходит в очередь синхронизации
	if !online {
		s.logger.Info("%s: store offline, queueing appointment=%s", c.operation, c.appointment.ID)
		return s.enqueue(ctx, c, undos)
	}

	// 4. Сохраняем в хранилище с таймаутом
	err := s.persist(ctx, c)
	if err == nil {
		s.logger.Info("%s: appointment=%s confirmed", c.operation, c.appointment.ID)
		s.publish(ctx, events.TypeConfirmed, c, "")
		return StateConfirmed, nil
	}

	// До следующей успешной проверки монитора хранилище offline,
	// переход обратно в online запускает проход очереди
	if isUnavailable(err) {
		s.connectivity.MarkOffline(err)
	}
	if isUnavailable(err) && c.withinTx == nil {
		s.logger.Warn("%s: store unavailable for appointment=%s, queueing: %v", c.operation, c.appointment.ID, err)
		return s.enqueue(ctx, c, undos)
	}

	// 5. Хранилище отклонило мутацию, откат индекса
	s.rollback(ctx, c, undos, err)
	if isUnavailable(err) {
		return "", fmt.Errorf("%w: %v", ErrOfflineConversion, err)
	}
	return "", &PersistenceError{AppointmentID: c.appointment.ID, Operation: c.operation, Err: err}
}

func (s *Service) persist(ctx context.Context, c change) error {
	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	return s.txManager.Do(persistCtx, func(txCtx context.Context) error {
		for _, m := range c.mutations {
			if err := m.Persist(txCtx, s.store, c.companyID); err != nil {
				return err
			}
		}
		if c.withinTx != nil {
			return c.withinTx(txCtx)
		}
		return nil
	})
}

func (s *Service) enqueue(ctx context.Context, c change, undos []schedule.Undo) (State, error) {
	if _, err := s.queue.Enqueue(ctx, c.companyID, c.mutations...); err != nil {
		s.logger.Error("%s: failed to queue appointment=%s: %v", c.operation, c.appointment.ID, err)
		s.rollback(ctx, c, undos, err)
		return "", &PersistenceError{AppointmentID: c.appointment.ID, Operation: c.operation, Err: err}
	}

	for _, m := range c.mutations {
		s.metrics.IncQueued(string(m.Kind()))
	}
	s.publish(ctx, events.TypePendingSync, c, "")
	return StatePendingSync, nil
}

func (s *Service) rollback(ctx context.Context, c change, undos []schedule.Undo, cause error) {
	s.index.Revert(undos...)
	s.metrics.IncRollback(c.operation)
	s.logger.Error("%s: rolled back appointment=%s: %v", c.operation, c.appointment.ID, cause)
	s.publish(ctx, events.TypeRolledBack, c, cause.Error())
}

func (s *Service) publish(ctx context.Context, t events.Type, c change, reason string) {
	s.publisher.Publish(ctx, events.Event{
		Type:          t,
		CompanyID:     c.companyID,
		Kind:          c.kind,
		AppointmentID: c.appointment.ID,
		Appointment:   c.appointment,
		Reason:        reason,
		OccurredAt:    s.timeProvider.Now(),
	})
}

// settingsFor возвращает настройки компании, при ошибке провайдера значения по умолчанию
func (s *Service) settingsFor(ctx context.Context, companyID string) *domain.AgendaSettings {
	settings, err := s.settings.GetAgendaSettings(ctx, companyID)
	if err != nil || settings == nil {
		s.logger.Warn("settings: using defaults for company=%s: %v", companyID, err)
		return domain.DefaultAgendaSettings(companyID)
	}
	return settings
}

// current возвращает актуальное состояние записи: из индекса или из хранилища
func (s *Service) current(ctx context.Context, operation, companyID, id string) (*domain.Appointment, error) {
	if a, ok := s.index.Get(companyID, id); ok {
		return a, nil
	}
	if !s.connectivity.IsOnline() {
		s.logger.Warn("%s: appointment=%s not in index and store is offline", operation, id)
		return nil, ErrAppointmentNotFound
	}

	a, err := s.fetch(ctx, operation, companyID, id)
	if err != nil {
		return nil, err
	}
	if a.IsDeleted() {
		s.logger.Warn("%s: appointment=%s is deleted", operation, id)
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *Service) fetch(ctx context.Context, operation, companyID, id string) (*domain.Appointment, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	a, err := s.store.GetAppointment(readCtx, companyID, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment=%s not found", operation, id)
			return nil, ErrAppointmentNotFound
		}
		if isUnavailable(err) {
			s.logger.Warn("%s: store unavailable reading appointment=%s: %v", operation, id, err)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.logger.Error("%s: failed to read appointment=%s: %v", operation, id, err)
		return nil, fmt.Errorf("%w: %s - read appointment: %v", ErrInternal, operation, err)
	}
	return a, nil
}

// suggest запрашивает кандидатов на освободившееся время
func (s *Service) suggest(ctx context.Context, companyID string, freed *domain.Appointment) *domain.SlotSuggestions {
	if s.advisor == nil || !freed.OccupiesGrid() {
		return nil
	}
	suggestions, err := s.advisor.SuggestForSlot(ctx, companyID, freed.ProfessionalID, *freed.StartAt)
	if err != nil {
		s.logger.Warn("suggest: failed for professional=%s at %s: %v", freed.ProfessionalID, freed.StartAt.Format(time.RFC3339), err)
		return nil
	}
	return suggestions
}

func (s *Service) lock(companyID, id string) func() {
	return s.locks.Lock(companyID + "/" + id)
}

// isUnavailable отличает недоступность хранилища от отказа
func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, appointmentRepo.ErrUnavailable) ||
		errors.Is(err, txmanager.ErrBeginTx)
}
