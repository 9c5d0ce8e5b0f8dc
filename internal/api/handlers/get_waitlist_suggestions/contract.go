package get_waitlist_suggestions

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

type SlotAdvisor interface {
	SuggestForSlot(ctx context.Context, companyID, professionalID string, at time.Time) (*domain.SlotSuggestions, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
