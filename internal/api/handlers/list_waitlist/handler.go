package list_waitlist

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const msgNoTenant = "не указана компания"

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/waitlist
// Записи упорядочены по приоритету, затем по позиции
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		if errors.Is(err, tenant.ErrNoTenant) {
			handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
			return
		}
		h.logger.Error("GET /waitlist - Failed to list waitlist: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /waitlist - %d entr(ies)", len(entries))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromWaitlist(entries))
}
