package convert_waitlist

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

// AppointmentCreator интерфейс пайплайна мутаций
type AppointmentCreator interface {
	Create(ctx context.Context, req *pipeline.CreateRequest) (*pipeline.Result, error)
}

// WaitlistRepository интерфейс репозитория листа ожидания
type WaitlistRepository interface {
	Get(ctx context.Context, companyID, id string) (*domain.WaitlistEntry, error)
	Delete(ctx context.Context, companyID, id string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
