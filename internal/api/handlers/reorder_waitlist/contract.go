package reorder_waitlist

import "context"

type WaitlistService interface {
	Reorder(ctx context.Context, orderedIDs []string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
