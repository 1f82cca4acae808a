package middleware

import (
	"net/http"
	"strings"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/config"
	"github.com/baharkarakas/paystream/internal/identity"
)

// Headers set by the gateway in front of the service.
const (
	HeaderTenant = "X-Tenant-ID"
	HeaderUser   = "X-User-ID"
	HeaderEmail  = "X-User-Email"
	HeaderRoles  = "X-User-Roles"
)

type AuthMiddleware struct {
	TM   *auth.TokenManager
	Mode string // config.Identity*
}

func NewAuthMiddleware(tm *auth.TokenManager, mode string) *AuthMiddleware {
	return &AuthMiddleware{TM: tm, Mode: mode}
}

// Auth resolves the caller identity and stores it in the request context.
// A bearer token wins over gateway headers when both are allowed.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var who identity.Identity

		token, hasBearer := bearer(r)
		switch {
		case hasBearer && m.Mode != config.IdentityHeaders:
			claims, isRefresh, err := m.TM.ParseAny(token)
			if err != nil || isRefresh {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
				return
			}
			who = claims.Identity()
		case m.Mode == config.IdentityJWT:
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		default:
			who = identity.New(
				strings.TrimSpace(r.Header.Get(HeaderTenant)),
				strings.TrimSpace(r.Header.Get(HeaderUser)),
				strings.TrimSpace(r.Header.Get(HeaderEmail)),
				identity.ParseRoles(r.Header.Get(HeaderRoles))...,
			)
		}

		if err := who.Validate(); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "missing_identity", err.Error(), nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), who)))
	})
}

func bearer(r *http.Request) (string, bool) {
	ah := r.Header.Get("Authorization")
	if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "bearer ") {
		return "", false
	}
	return strings.TrimSpace(ah[len("Bearer "):]), true
}
