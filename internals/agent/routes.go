package agent

import (
	middle "watchtower/internals/middleware"
	"watchtower/internals/modules/agentwire"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func Routes(h *Handler, sharedKey string, log *zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(log))

	r.With(middle.SharedKey(agentwire.AuthHeader, sharedKey)).Post("/execute", h.Execute)
	r.Get("/health", h.Health)

	return r
}

/*
- POST: /execute  -> run a check on behalf of the core
	req auth : shared key header
	body : agentwire.ExecuteRequest
	resp : agentwire.ExecuteResponse

- GET: /health  -> liveness + region echo, polled by the core
	req auth : false
	body : nil
	resp : agentwire.HealthResponse
*/
