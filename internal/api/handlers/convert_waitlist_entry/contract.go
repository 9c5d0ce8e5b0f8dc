package convert_waitlist_entry

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
	convertWaitlist "github.com/m04kA/SMC-AgendaService/internal/usecase/convert_waitlist"
)

type ConvertWaitlistUseCase interface {
	Execute(ctx context.Context, req *convertWaitlist.Request) (*pipeline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
