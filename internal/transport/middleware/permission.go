package middleware

import (
	"net/http"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/transport"
)

// RequirePermission gates a whole route on one capability. Services still
// run their own checks; this is for listings that have no target record.
func RequirePermission(policy auth.Policy, base *transport.BaseHandler, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				base.HandleError(w, internal.ErrInvalidToken)
				return
			}

			if err := policy.Require(r.Context(), p, permission); err != nil {
				base.HandleServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
