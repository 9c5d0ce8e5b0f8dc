package get_settings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const msgNoTenant = "не указана компания"

type Handler struct {
	service SettingsService
	logger  Logger
}

func NewHandler(service SettingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/settings
// Для компании без настроек создаются значения по умолчанию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		if errors.Is(err, tenant.ErrNoTenant) {
			handlers.RespondError(w, http.StatusUnauthorized, msgNoTenant)
			return
		}
		h.logger.Error("GET /settings - Failed to get settings: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /settings - company_id=%s", settings.CompanyID)
	handlers.RespondJSON(w, http.StatusOK, FromDomain(settings))
}
