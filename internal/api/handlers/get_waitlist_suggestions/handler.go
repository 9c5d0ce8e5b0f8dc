package get_waitlist_suggestions

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	msgNoTenant        = "не указана компания"
	msgMissingParams   = "необходимо указать professionalId и dateTime"
	msgInvalidDateTime = "некорректный формат dateTime, ожидается RFC3339"
)

type Handler struct {
	advisor SlotAdvisor
	logger  Logger
}

func NewHandler(advisor SlotAdvisor, logger Logger) *Handler {
	return &Handler{
		advisor: advisor,
		logger:  logger,
	}
}

// Handle GET /api/v1/waitlist/suggestions?professionalId=&dateTime=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyIDFromContext(r.Context())
	if err != nil {
		handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
		return
	}

	query := r.URL.Query()
	professionalID := query.Get("professionalId")
	rawDateTime := query.Get("dateTime")
	if professionalID == "" || rawDateTime == "" {
		handlers.RespondBadRequest(w, msgMissingParams)
		return
	}

	at, err := time.Parse(time.RFC3339, rawDateTime)
	if err != nil {
		h.logger.Warn("GET /waitlist/suggestions - Invalid dateTime: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	suggestions, err := h.advisor.SuggestForSlot(r.Context(), companyID, professionalID, at)
	if err != nil {
		h.logger.Error("GET /waitlist/suggestions - Failed to suggest: professional_id=%s, error=%v", professionalID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /waitlist/suggestions - professional_id=%s, waitlist=%d, recent=%d",
		professionalID, len(suggestions.Waitlist), len(suggestions.RecentClients))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromSuggestions(suggestions))
}
