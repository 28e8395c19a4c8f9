package app

import (
	"net/http"
	"time"
	middle "watchtower/internals/middleware"
	"watchtower/internals/modules/uptime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// InternalKeyHeader authenticates the CRUD service's hook calls.
const InternalKeyHeader = "X-Internal-Key"

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/internal/v1", func(v1 chi.Router) {
		v1.Use(middle.SharedKey(InternalKeyHeader, c.Config.Hooks.InternalKey))
		v1.Mount("/", uptime.Routes(c.uptimeHandler))
	})

	return r
}
