package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ProfessionalID string                      `json:"professionalId"`
	ClientID       *string                     `json:"clientId,omitempty"`
	ClientName     *string                     `json:"clientName,omitempty"`
	ServiceIDs     []string                    `json:"serviceIds"`
	StartAt        *time.Time                  `json:"startAt"` // null = walk-in
	Notes          *string                     `json:"notes,omitempty"`
	Resolution     *handlers.ResolutionRequest `json:"resolution,omitempty"`
}

// ToPipelineRequest конвертирует HTTP запрос в модель пайплайна
func (r *CreateAppointmentRequest) ToPipelineRequest() *pipeline.CreateRequest {
	return &pipeline.CreateRequest{
		ProfessionalID: r.ProfessionalID,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
		ServiceIDs:     r.ServiceIDs,
		StartAt:        r.StartAt,
		Notes:          r.Notes,
		Resolution:     r.Resolution.ToResolution(),
	}
}
