package delete_appointment

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

type AppointmentDeleter interface {
	SoftDelete(ctx context.Context, appointmentID string) (*pipeline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
