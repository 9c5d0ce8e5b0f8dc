package get_sync_status

import "context"

type Connectivity interface {
	IsOnline() bool
}

type SyncQueue interface {
	Len(ctx context.Context) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
