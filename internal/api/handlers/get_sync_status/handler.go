package get_sync_status

import (
	"net/http"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
)

// SyncStatusResponse состояние связи с хранилищем и очереди синхронизации
type SyncStatusResponse struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
}

type Handler struct {
	connectivity Connectivity
	queue        SyncQueue
	logger       Logger
}

func NewHandler(connectivity Connectivity, queue SyncQueue, logger Logger) *Handler {
	return &Handler{
		connectivity: connectivity,
		queue:        queue,
		logger:       logger,
	}
}

// Handle GET /api/v1/sync/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	pending, err := h.queue.Len(r.Context())
	if err != nil {
		h.logger.Error("GET /sync/status - Failed to read queue length: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SyncStatusResponse{
		Online:  h.connectivity.IsOnline(),
		Pending: pending,
	})
}
