package restore_appointment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

const msgInvalidRequestBody = "некорректное тело запроса"

// RestoreAppointmentRequest тело запроса необязательно
type RestoreAppointmentRequest struct {
	Resolution *handlers.ResolutionRequest `json:"resolution,omitempty"`
}

type Handler struct {
	service AppointmentRestorer
	logger  Logger
}

func NewHandler(service AppointmentRestorer, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/{id}/restore
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	var req RestoreAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, handlers.ErrEmptyBody) {
		h.logger.Warn("POST /appointments/{id}/restore - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Restore(r.Context(), &pipeline.RestoreRequest{
		AppointmentID: appointmentID,
		Resolution:    req.Resolution.ToResolution(),
	})
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("POST /appointments/{id}/restore - Failed to restore: id=%s, error=%v", appointmentID, err)
		}
		return
	}

	h.logger.Info("POST /appointments/{id}/restore - id=%s, outcome=%s", appointmentID, result.Outcome)
	handlers.RespondResult(w, http.StatusOK, result)
}
