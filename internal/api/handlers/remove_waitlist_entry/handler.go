package remove_waitlist_entry

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	msgEntryNotFound = "запись листа ожидания не найдена"
	msgNoTenant      = "не указана компания"
)

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

// Handle DELETE /api/v1/waitlist/{id}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]

	if err := h.service.Remove(r.Context(), entryID); err != nil {
		switch {
		case errors.Is(err, tenant.ErrNoTenant):
			handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
		case errors.Is(err, waitlist.ErrEntryNotFound):
			h.logger.Warn("DELETE /waitlist/{id} - Entry not found: id=%s", entryID)
			handlers.RespondNotFound(w, msgEntryNotFound)
		default:
			h.logger.Error("DELETE /waitlist/{id} - Failed to remove entry: id=%s, error=%v", entryID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /waitlist/{id} - Entry removed: id=%s", entryID)
	handlers.RespondNoContent(w)
}
