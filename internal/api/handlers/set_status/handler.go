package set_status

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	service StatusChanger
	logger  Logger
}

func NewHandler(service StatusChanger, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{id}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	var req SetStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.SetStatus(r.Context(), req.ToPipelineRequest(appointmentID))
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("PATCH /appointments/{id}/status - Failed to set status: id=%s, status=%s, error=%v",
				appointmentID, req.Status, err)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/status - id=%s, status=%s, late_cancellation=%t",
		appointmentID, req.Status, result.LateCancellation)
	handlers.RespondResult(w, http.StatusOK, result)
}
