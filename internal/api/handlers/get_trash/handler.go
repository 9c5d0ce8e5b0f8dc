package get_trash

import (
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

type Handler struct {
	service TrashReader
	logger  Logger
}

func NewHandler(service TrashReader, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/trash
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Trash(r.Context())
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("GET /trash - Failed to list trash: %v", err)
		}
		return
	}

	h.logger.Info("GET /trash - %d appointment(s)", len(deleted))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromAppointments(deleted))
}
