package get_trash

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

type TrashReader interface {
	Trash(ctx context.Context) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
