package get_agenda

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

const msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"

type Handler struct {
	service  AgendaService
	location *time.Location
	logger   Logger
}

// NewHandler создает обработчик; даты разбираются в часовом поясе агенды
func NewHandler(service AgendaService, location *time.Location, logger Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:  service,
		location: location,
		logger:   logger,
	}
}

// Handle GET /api/v1/agenda?date=YYYY-MM-DD&professionalId=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date := time.Now().In(h.location)
	if raw := query.Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(domain.DateFormat, raw, h.location)
		if err != nil {
			h.logger.Warn("GET /agenda - Invalid date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		date = parsed
	}
	professionalID := query.Get("professionalId")

	view, err := h.service.Agenda(r.Context(), date, professionalID)
	if err != nil {
		if !handlers.RespondPipelineError(w, err) {
			h.logger.Error("GET /agenda - Failed to get agenda: date=%s, error=%v", date.Format(domain.DateFormat), err)
		}
		return
	}

	h.logger.Info("GET /agenda - date=%s, professional=%q, scheduled=%d, walk_ins=%d",
		date.Format(domain.DateFormat), professionalID, len(view.Scheduled), len(view.WalkIns))
	handlers.RespondJSON(w, http.StatusOK, FromDayView(date.Format(domain.DateFormat), view))
}
