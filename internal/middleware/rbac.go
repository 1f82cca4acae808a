package middleware

import (
	"net/http"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/authz"
	"github.com/baharkarakas/paystream/internal/identity"
)

// Require turns away callers that cannot perform op before the body is read.
// Services repeat the check, so this is only an early exit.
func Require(op authz.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := identity.FromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusBadRequest, "missing_identity", "missing identity", nil)
				return
			}
			if err := authz.Authorize(op, who); err != nil {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
