package get_agenda

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
)

type AgendaService interface {
	Agenda(ctx context.Context, date time.Time, professionalID string) (schedule.DayView, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
