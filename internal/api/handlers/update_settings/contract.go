package update_settings

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

type SettingsService interface {
	Update(ctx context.Context, patch domain.AgendaSettingsPatch) (*domain.AgendaSettings, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
