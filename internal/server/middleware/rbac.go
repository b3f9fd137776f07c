package middleware

import (
	"net/http"

	"github.com/base2ml/babyraffle/internal/domain"
)

// RequireMinRole gates a route subtree behind a minimum role. Role ordering
// is user < admin < owner; an owner passes every gate.
func RequireMinRole(min domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if !user.Role.AtLeast(min) {
				writeError(w, r, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
