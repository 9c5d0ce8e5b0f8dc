package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
)

const (
	DefaultPersistTimeout = 5 * time.Second
	DefaultItemsPerSecond = 20
)

// Config настройки очереди синхронизации
type Config struct {
	PersistTimeout time.Duration
	// ItemsPerSecond темп прохода очереди; между элементами drain уступает планировщику
	ItemsPerSecond float64
}

// DrainReport итог одного прохода очереди
type DrainReport struct {
	Skipped bool
	Synced  int
	Failed  int
	Dropped int
	// Held элементы, отложенные из-за неудачи более ранней мутации той же записи
	Held int
}

// Dependencies зависимости очереди
type Dependencies struct {
	Store        QueueStore
	Mutations    domain.MutationStore
	Connectivity Connectivity
	TxManager    TransactionManager
	Publisher    EventPublisher
	Metrics      MetricsRecorder
	TimeProvider TimeProvider // опционально
	Logger       Logger
}

// Queue очередь мутаций, ожидающих сохранения в хранилище
type Queue struct {
	store        QueueStore
	mutations    domain.MutationStore
	connectivity Connectivity
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger

	persistTimeout time.Duration
	limiter        *rate.Limiter
	draining       atomic.Bool
	background     sync.WaitGroup
}

// NewQueue создает очередь синхронизации
func NewQueue(deps Dependencies, cfg Config) *Queue {
	timeProvider := deps.TimeProvider
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if cfg.ItemsPerSecond <= 0 {
		cfg.ItemsPerSecond = DefaultItemsPerSecond
	}

	return &Queue{
		store:          deps.Store,
		mutations:      deps.Mutations,
		connectivity:   deps.Connectivity,
		txManager:      deps.TxManager,
		publisher:      deps.Publisher,
		metrics:        deps.Metrics,
		timeProvider:   timeProvider,
		logger:         deps.Logger,
		persistTimeout: cfg.PersistTimeout,
		limiter:        rate.NewLimiter(rate.Limit(cfg.ItemsPerSecond), 1),
	}
}

// Enqueue ставит мутации в конец очереди. Мутации одного изменения
// добавляются вместе и сохраняют свой порядок
func (q *Queue) Enqueue(ctx context.Context, companyID string, mutations ...domain.Mutation) ([]string, error) {
	now := q.timeProvider.Now()
	items := make([]*domain.SyncQueueItem, len(mutations))
	ids := make([]string, len(mutations))
	for i, m := range mutations {
		ids[i] = uuid.NewString()
		items[i] = &domain.SyncQueueItem{
			ID:         ids[i],
			CompanyID:  companyID,
			Mutation:   m,
			EnqueuedAt: now,
		}
	}

	if err := q.store.Append(ctx, items...); err != nil {
		q.logger.Error("Enqueue: failed to append %d mutation(s) for company=%s: %v", len(items), companyID, err)
		return nil, fmt.Errorf("%w: Enqueue - append: %v", ErrQueueStore, err)
	}

	q.logger.Info("Enqueue: %d mutation(s) queued for company=%s", len(items), companyID)
	return ids, nil
}

// Len возвращает число ожидающих мутаций
func (q *Queue) Len(ctx context.Context) (int, error) {
	n, err := q.store.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: Len: %v", ErrQueueStore, err)
	}
	return n, nil
}

// Drain проходит очередь строго в порядке постановки. Одновременно
// выполняется не больше одного прохода, повторный вызов ничего не делает.
// Возвращает SyncExhaustedError по каждой удаленной мутации
func (q *Queue) Drain(ctx context.Context) (DrainReport, error) {
	if !q.draining.CompareAndSwap(false, true) {
		q.logger.Info("Drain: already in progress")
		return DrainReport{Skipped: true}, nil
	}
	defer q.draining.Store(false)

	if !q.connectivity.IsOnline() {
		q.logger.Info("Drain: store offline, skipping")
		return DrainReport{Skipped: true}, nil
	}

	started := q.timeProvider.Now()
	defer func() { q.metrics.ObserveDrain(q.timeProvider.Now().Sub(started)) }()

	// 1. Снимок очереди
	items, err := q.store.List(ctx)
	if err != nil {
		q.logger.Error("Drain: failed to list queue: %v", err)
		return DrainReport{}, fmt.Errorf("%w: Drain - list: %v", ErrQueueStore, err)
	}

	// 2. Записи независимы друг от друга, но мутации одной записи идут строго
	// по порядку: после неудачи остальные ее мутации ждут следующего прохода
	var (
		report    DrainReport
		exhausted []error
		blocked   = make(map[string]struct{})
	)
	for i, item := range items {
		key := item.CompanyID + "/" + item.Mutation.AppointmentID()
		if _, ok := blocked[key]; ok {
			report.Held++
			q.logger.Info("Drain: item=%s held behind a failed mutation of appointment=%s", item.ID, item.Mutation.AppointmentID())
			continue
		}

		if err := q.limiter.Wait(ctx); err != nil {
			q.logger.Warn("Drain: interrupted after %d item(s): %v", i, err)
			break
		}

		persistErr := q.persist(ctx, item)
		if persistErr == nil {
			if err := q.store.Remove(ctx, item.ID); err != nil {
				q.logger.Error("Drain: item=%s synced but not removed: %v", item.ID, err)
			}
			report.Synced++
			q.publish(ctx, events.TypeSynced, item, "")
			continue
		}

		// 3. Неудача: счетчик попыток, после лимита элемент удаляется
		item.RetryCount++
		if item.Exhausted() {
			if err := q.store.Remove(ctx, item.ID); err != nil {
				q.logger.Error("Drain: failed to drop item=%s: %v", item.ID, err)
			}
			report.Dropped++
			q.metrics.IncSyncDropped(string(item.Mutation.Kind()))
			q.publish(ctx, events.TypeSyncExhausted, item, persistErr.Error())
			q.logger.Error("Drain: item=%s %s of appointment=%s dropped after %d attempts: %v",
				item.ID, item.Mutation.Kind(), item.Mutation.AppointmentID(), item.RetryCount, persistErr)
			exhausted = append(exhausted, &SyncExhaustedError{
				ItemID:        item.ID,
				CompanyID:     item.CompanyID,
				AppointmentID: item.Mutation.AppointmentID(),
				Kind:          item.Mutation.Kind(),
				Attempts:      item.RetryCount,
				Err:           persistErr,
			})
			continue
		}

		if err := q.store.SaveRetry(ctx, item.ID, item.RetryCount); err != nil {
			q.logger.Error("Drain: failed to save retry count of item=%s: %v", item.ID, err)
		}
		report.Failed++
		blocked[key] = struct{}{}
		q.logger.Warn("Drain: item=%s attempt %d failed: %v", item.ID, item.RetryCount, persistErr)
	}

	q.logger.Info("Drain: synced=%d, failed=%d, dropped=%d, held=%d", report.Synced, report.Failed, report.Dropped, report.Held)
	return report, errors.Join(exhausted...)
}

// OnReconnect запускает проход очереди в фоне
func (q *Queue) OnReconnect(ctx context.Context) {
	q.background.Add(1)
	go func() {
		defer q.background.Done()
		if _, err := q.Drain(ctx); err != nil {
			q.logger.Warn("OnReconnect: drain finished with errors: %v", err)
		}
	}()
}

// Run периодически проходит непустую очередь до отмены контекста
func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Info("SyncQueue: drain loop started, interval=%s", interval)
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("SyncQueue: drain loop stopped")
			return
		case <-ticker.C:
			pending, err := q.store.Len(ctx)
			if err != nil {
				q.logger.Warn("SyncQueue: failed to read queue length: %v", err)
				continue
			}
			if pending == 0 {
				continue
			}
			if _, err := q.Drain(ctx); err != nil {
				q.logger.Warn("SyncQueue: drain finished with errors: %v", err)
			}
		}
	}
}

// Wait дожидается фоновых проходов очереди
func (q *Queue) Wait() {
	q.background.Wait()
}

func (q *Queue) persist(ctx context.Context, item *domain.SyncQueueItem) error {
	persistCtx, cancel := context.WithTimeout(ctx, q.persistTimeout)
	defer cancel()

	return q.txManager.Do(persistCtx, func(txCtx context.Context) error {
		return item.Mutation.Persist(txCtx, q.mutations, item.CompanyID)
	})
}

func (q *Queue) publish(ctx context.Context, t events.Type, item *domain.SyncQueueItem, reason string) {
	q.publisher.Publish(ctx, events.Event{
		Type:          t,
		CompanyID:     item.CompanyID,
		Kind:          item.Mutation.Kind(),
		AppointmentID: item.Mutation.AppointmentID(),
		Attempts:      item.RetryCount,
		Reason:        reason,
		OccurredAt:    q.timeProvider.Now(),
	})
}
