package move_appointment

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

// MoveAppointmentRequest HTTP request model
type MoveAppointmentRequest struct {
	ProfessionalID string                      `json:"professionalId,omitempty"` // пусто = тот же профессионал
	StartAt        *time.Time                  `json:"startAt"`                  // null = в очередь walk-in
	Resolution     *handlers.ResolutionRequest `json:"resolution,omitempty"`
}

func (r *MoveAppointmentRequest) ToPipelineRequest(appointmentID string) *pipeline.MoveRequest {
	return &pipeline.MoveRequest{
		AppointmentID:  appointmentID,
		ProfessionalID: r.ProfessionalID,
		StartAt:        r.StartAt,
		Resolution:     r.Resolution.ToResolution(),
	}
}
