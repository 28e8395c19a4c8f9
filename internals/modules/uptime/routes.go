package uptime

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/monitors/{monitorID}/created", h.MonitorCreated)
	r.Post("/monitors/{monitorID}/updated", h.MonitorUpdated)
	r.Post("/monitors/{monitorID}/deleted", h.MonitorDeleted)
	r.Post("/monitors/{monitorID}/check", h.TriggerCheck)

	return r
}

/*
- POST: /monitors/{monitorID}/created  -> schedule a new monitor + immediate first check
- POST: /monitors/{monitorID}/updated  -> invalidate cached config, re-anchor schedule
- POST: /monitors/{monitorID}/deleted  -> drop schedule entries + cached config
- POST: /monitors/{monitorID}/check    -> queue a one-off check due now

All routes sit behind the internal shared key; the CRUD service calls them
after its own transaction commits.
*/
