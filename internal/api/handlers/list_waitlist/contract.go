package list_waitlist

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

type WaitlistService interface {
	List(ctx context.Context) ([]*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
