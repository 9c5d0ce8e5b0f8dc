package set_status

import (
	"context"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

type StatusChanger interface {
	SetStatus(ctx context.Context, req *pipeline.StatusRequest) (*pipeline.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
