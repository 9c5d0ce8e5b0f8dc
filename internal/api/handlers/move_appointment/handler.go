package move_appointment

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	mover  AppointmentMover
	logger Logger
}

func NewHandler(mover AppointmentMover, logger Logger) *Handler {
	return &Handler{
		mover:  mover,
		logger: logger,
	}
}

// Handle PATCH /api/v1/appointments/{id}/move
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	var req MoveAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/move - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.mover.Move(r.Context(), req.ToPipelineRequest(appointmentID))
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("PATCH /appointments/{id}/move - Failed to move: id=%s, error=%v", appointmentID, err)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/move - id=%s, outcome=%s, state=%s", appointmentID, result.Outcome, result.State)
	handlers.RespondResult(w, http.StatusOK, result)
}
