package purge_trash

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// UseCase окончательно удаляет записи, пролежавшие в корзине дольше срока хранения
type UseCase struct {
	repo         TrashRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(repo TrashRepository, logger Logger) *UseCase {
	return &UseCase{
		repo:         repo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute удаляет просроченные записи всех компаний и возвращает их количество
func (uc *UseCase) Execute(ctx context.Context) (int64, error) {
	before := uc.timeProvider.Now().Add(-domain.TrashRetention)

	purged, err := uc.repo.PurgeDeleted(ctx, before)
	if err != nil {
		uc.logger.Error("PurgeTrash: failed to purge appointments deleted before %s: %v", before.Format(time.RFC3339), err)
		return 0, fmt.Errorf("%w: failed to purge: %v", ErrInternal, err)
	}

	uc.logger.Info("PurgeTrash: purged %d appointment(s) deleted before %s", purged, before.Format(time.RFC3339))
	return purged, nil
}

// Run выполняет очистку с заданным интервалом до отмены контекста
func (uc *UseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = uc.Execute(ctx)
		}
	}
}
