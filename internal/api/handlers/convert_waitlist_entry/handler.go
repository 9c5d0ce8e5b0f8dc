package convert_waitlist_entry

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	convertWaitlist "github.com/m04kA/SMC-AgendaService/internal/usecase/convert_waitlist"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgEntryNotFound      = "запись листа ожидания не найдена"
	msgInvalidInput       = "для записи без предпочтения необходимо указать профессионала"
)

type Handler struct {
	useCase ConvertWaitlistUseCase
	logger  Logger
}

func NewHandler(useCase ConvertWaitlistUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist/{id}/convert
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]

	var req ConvertRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /waitlist/{id}/convert - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(entryID))
	if err != nil {
		switch {
		case errors.Is(err, convertWaitlist.ErrEntryNotFound):
			h.logger.Warn("POST /waitlist/{id}/convert - Entry not found: id=%s", entryID)
			handlers.RespondNotFound(w, msgEntryNotFound)
		case errors.Is(err, convertWaitlist.ErrInvalidInput):
			h.logger.Warn("POST /waitlist/{id}/convert - Invalid input: id=%s, error=%v", entryID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)
		default:
			if !handlers.RespondPipelineError(w, err) {
				h.logger.Error("POST /waitlist/{id}/convert - Failed to convert: id=%s, error=%v", entryID, err)
			}
		}
		return
	}

	h.logger.Info("POST /waitlist/{id}/convert - id=%s, outcome=%s, state=%s", entryID, result.Outcome, result.State)
	handlers.RespondResult(w, http.StatusCreated, result)
}
