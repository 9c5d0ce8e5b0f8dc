package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	cacheKeyPrefix  = "agenda:settings:"
)

// Service настройки агенды компании. Чтения кэшируются в redis,
// одновременные промахи по одной компании сводятся к одному запросу в БД
type Service struct {
	repo   SettingsRepository
	cache  redis.UniversalClient // nil = без кэша
	ttl    time.Duration
	group  singleflight.Group
	logger Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(repo SettingsRepository, cache redis.UniversalClient, ttl time.Duration, logger Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// GetAgendaSettings возвращает настройки компании, создавая их при первом обращении
func (s *Service) GetAgendaSettings(ctx context.Context, companyID string) (*domain.AgendaSettings, error) {
	if cached, ok := s.fromCache(ctx, companyID); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(companyID, func() (interface{}, error) {
		// Результат делят все ожидающие, отмена первого запроса его не прерывает
		loadCtx := context.WithoutCancel(ctx)
		settings, err := s.repo.GetOrCreate(loadCtx, companyID)
		if err != nil {
			return nil, err
		}
		s.toCache(loadCtx, settings)
		return settings, nil
	})
	if err != nil {
		s.logger.Error("GetAgendaSettings: failed to load company=%s: %v", companyID, err)
		return nil, fmt.Errorf("%w: GetAgendaSettings - load settings: %v", ErrInternal, err)
	}

	copied := *v.(*domain.AgendaSettings)
	return &copied, nil
}

// Get возвращает настройки компании из контекста
func (s *Service) Get(ctx context.Context) (*domain.AgendaSettings, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetAgendaSettings(ctx, companyID)
}

// Update применяет частичное обновление настроек компании из контекста
func (s *Service) Update(ctx context.Context, patch domain.AgendaSettingsPatch) (*domain.AgendaSettings, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UpdateSettings: company=%s", companyID)

	// 1. Валидация входных данных
	if err := validatePatch(patch); err != nil {
		s.logger.Warn("UpdateSettings: validation failed: %v", err)
		return nil, err
	}

	// 2. Строка настроек должна существовать до обновления
	if _, err := s.repo.GetOrCreate(ctx, companyID); err != nil {
		s.logger.Error("UpdateSettings: failed to ensure settings for company=%s: %v", companyID, err)
		return nil, fmt.Errorf("%w: Update - ensure settings: %v", ErrInternal, err)
	}

	updated, err := s.repo.Update(ctx, companyID, patch)
	if err != nil {
		s.logger.Error("UpdateSettings: failed to update company=%s: %v", companyID, err)
		return nil, fmt.Errorf("%w: Update - update settings: %v", ErrInternal, err)
	}

	// 3. Сбрасываем кэш, следующее чтение возьмет новые значения
	s.invalidate(ctx, companyID)

	s.logger.Info("UpdateSettings: company=%s updated, allowOverbooking=%t", companyID, updated.AllowOverbooking)
	return updated, nil
}

func validatePatch(p domain.AgendaSettingsPatch) error {
	if p.AllowOverbooking == nil && p.LateCancelLimitMinutes == nil && p.SuggestNextVisitDays == nil {
		return fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	if v := p.LateCancelLimitMinutes; v != nil && (*v < 0 || *v > domain.MaxLateCancelLimitMinutes) {
		return fmt.Errorf("%w: lateCancelLimitMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxLateCancelLimitMinutes)
	}
	if v := p.SuggestNextVisitDays; v != nil && (*v < 1 || *v > domain.MaxSuggestNextVisitDays) {
		return fmt.Errorf("%w: suggestNextVisitDays must be between 1 and %d", ErrInvalidInput, domain.MaxSuggestNextVisitDays)
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context, companyID string) (*domain.AgendaSettings, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, cacheKeyPrefix+companyID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("GetAgendaSettings: cache read failed for company=%s: %v", companyID, err)
		}
		return nil, false
	}

	var settings domain.AgendaSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("GetAgendaSettings: corrupt cache entry for company=%s: %v", companyID, err)
		return nil, false
	}
	return &settings, true
}

func (s *Service) toCache(ctx context.Context, settings *domain.AgendaSettings) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+settings.CompanyID, data, s.ttl).Err(); err != nil {
		s.logger.Warn("GetAgendaSettings: cache write failed for company=%s: %v", settings.CompanyID, err)
	}
}

func (s *Service) invalidate(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKeyPrefix+companyID).Err(); err != nil {
		s.logger.Warn("UpdateSettings: cache invalidation failed for company=%s: %v", companyID, err)
	}
}
