package convert_waitlist_entry

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	convertWaitlist "github.com/m04kA/SMC-AgendaService/internal/usecase/convert_waitlist"
)

// ConvertRequest HTTP request model
type ConvertRequest struct {
	ProfessionalID string                      `json:"professionalId,omitempty"` // пусто = предпочтение клиента
	ServiceIDs     []string                    `json:"serviceIds"`
	StartAt        *time.Time                  `json:"startAt"`
	Resolution     *handlers.ResolutionRequest `json:"resolution,omitempty"`
}

func (r *ConvertRequest) ToUseCaseRequest(entryID string) *convertWaitlist.Request {
	return &convertWaitlist.Request{
		EntryID:        entryID,
		ProfessionalID: r.ProfessionalID,
		ServiceIDs:     r.ServiceIDs,
		StartAt:        r.StartAt,
		Resolution:     r.Resolution.ToResolution(),
	}
}
