package uptime

import (
	"context"
	"net/http"
	"watchtower/pkg/apperror"
	"watchtower/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Handler is the internal hook surface the monitor CRUD service calls after
// its own writes commit. No request bodies: the monitor id in the path is
// the whole contract, the core re-reads the definition itself.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) MonitorCreated(w http.ResponseWriter, r *http.Request) {
	h.hook(w, r, h.service.OnMonitorCreated, "monitor scheduled")
}

func (h *Handler) MonitorUpdated(w http.ResponseWriter, r *http.Request) {
	h.hook(w, r, h.service.OnMonitorUpdated, "monitor schedule updated")
}

func (h *Handler) MonitorDeleted(w http.ResponseWriter, r *http.Request) {
	h.hook(w, r, h.service.OnMonitorDeleted, "monitor unscheduled")
}

func (h *Handler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	h.hook(w, r, h.service.TriggerCheck, "check queued")
}

func (h *Handler) hook(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error, okMsg string) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	if err := fn(ctx, monitorID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, reqID, okMsg, monitorID)
}
