package settings

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// SettingsRepository интерфейс для работы с настройками агенды
type SettingsRepository interface {
	GetOrCreate(ctx context.Context, companyID string) (*domain.AgendaSettings, error)
	Update(ctx context.Context, companyID string, patch domain.AgendaSettingsPatch) (*domain.AgendaSettings, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
