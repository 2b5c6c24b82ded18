package middleware

import (
	"net/http"

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/pkg/logger"
)

// UserContext tags the request logger with the session of the principal.
// It must run after the auth middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "session_id", p.SessionID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
