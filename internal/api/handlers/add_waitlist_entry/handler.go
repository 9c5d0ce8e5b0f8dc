package add_waitlist_entry

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат желаемой даты, ожидается YYYY-MM-DD"
	msgInvalidEntry       = "некорректные данные записи листа ожидания"
	msgNoTenant           = "не указана компания"
)

type Handler struct {
	service  WaitlistService
	location *time.Location
	logger   Logger
}

func NewHandler(service WaitlistService, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle POST /api/v1/waitlist
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req AddWaitlistEntryRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(h.location)
	if err != nil {
		h.logger.Warn("POST /waitlist - Invalid desired date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	entry, err := h.service.Add(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrNoTenant):
			handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
		case errors.Is(err, waitlist.ErrInvalidInput):
			h.logger.Warn("POST /waitlist - Invalid entry: client_id=%s, error=%v", req.ClientID, err)
			handlers.RespondBadRequest(w, msgInvalidEntry)
		default:
			h.logger.Error("POST /waitlist - Failed to add entry: client_id=%s, error=%v", req.ClientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /waitlist - Entry added: id=%s, position=%d, priority=%s", entry.ID, entry.Position, entry.Priority)
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromWaitlistEntry(entry))
}
