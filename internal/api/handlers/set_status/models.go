package set_status

import (
	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

// SetStatusRequest HTTP request model
type SetStatusRequest struct {
	Status string `json:"status"`
}

func (r *SetStatusRequest) ToPipelineRequest(appointmentID string) *pipeline.StatusRequest {
	return &pipeline.StatusRequest{
		AppointmentID: appointmentID,
		Status:        domain.AppointmentStatus(r.Status),
	}
}
