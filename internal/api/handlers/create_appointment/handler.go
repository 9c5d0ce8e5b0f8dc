package create_appointment

import (
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	creator AppointmentCreator
	logger  Logger
}

func NewHandler(creator AppointmentCreator, logger Logger) *Handler {
	return &Handler{
		creator: creator,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.creator.Create(r.Context(), req.ToPipelineRequest())
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("POST /appointments - Failed to create appointment: professional_id=%s, error=%v",
				req.ProfessionalID, err)
		}
		return
	}

	if result.Applied() {
		h.logger.Info("POST /appointments - Appointment created: id=%s, state=%s", result.Appointment.ID, result.State)
	} else {
		h.logger.Info("POST /appointments - Not placed: professional_id=%s, outcome=%s", req.ProfessionalID, result.Outcome)
	}
	handlers.RespondResult(w, http.StatusCreated, result)
}
