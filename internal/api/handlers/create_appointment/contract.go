package create_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

type AppointmentCreator interface {
	Create(ctx context.Context, req *pipeline.CreateRequest) (*pipeline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
