package restore_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

type AppointmentRestorer interface {
	Restore(ctx context.Context, req *pipeline.RestoreRequest) (*pipeline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
