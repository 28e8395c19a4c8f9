package middle

import (
	"crypto/subtle"
	"net/http"
	"watchtower/pkg/apperror"
	"watchtower/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// SharedKey guards a route group with a static key exchanged out of band.
// Used for the agent /execute endpoint and the internal hook surface.
func SharedKey(header, key string) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)

			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				reqID := middleware.GetReqID(r.Context())
				utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "invalid or missing key")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
