package delete_appointment

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

type Handler struct {
	service AppointmentDeleter
	logger  Logger
}

func NewHandler(service AppointmentDeleter, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/appointments/{id}
// Запись переносится в корзину, восстановление возможно в течение срока хранения
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["id"]

	result, err := h.service.SoftDelete(r.Context(), appointmentID)
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("DELETE /appointments/{id} - Failed to delete: id=%s, error=%v", appointmentID, err)
		}
		return
	}

	h.logger.Info("DELETE /appointments/{id} - Moved to trash: id=%s, state=%s", appointmentID, result.State)
	handlers.RespondResult(w, http.StatusOK, result)
}
