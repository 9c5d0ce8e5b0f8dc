package reorder_waitlist

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidOrder       = "некорректный порядок записей"
	msgNoTenant           = "не указана компания"
)

// ReorderRequest новый порядок записей, позиции назначаются 1..n
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

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

// Handle PUT /api/v1/waitlist/order
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /waitlist/order - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := h.service.Reorder(r.Context(), req.IDs); err != nil {
		switch {
		case errors.Is(err, tenant.ErrNoTenant):
			handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
		case errors.Is(err, waitlist.ErrInvalidInput):
			h.logger.Warn("PUT /waitlist/order - Invalid order: %v", err)
			handlers.RespondBadRequest(w, msgInvalidOrder)
		default:
			h.logger.Error("PUT /waitlist/order - Failed to reorder: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /waitlist/order - Reordered %d entr(ies)", len(req.IDs))
	handlers.RespondNoContent(w)
}
