package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/identity"
)

type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
	Log    *slog.Logger
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string, log *slog.Logger) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv, Log: log}
}

type tokenReq struct {
	TenantID string   `json:"tenant_id"`
	UserID   string   `json:"user_id"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

func (h *AuthHandler) writePair(w http.ResponseWriter, who identity.Identity) {
	pair, err := h.TM.GeneratePair(who)
	if err != nil {
		h.Log.Error("token generation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresIn:    int64(time.Until(pair.AccessExp).Truncate(time.Second).Seconds()),
	})
}

// Token mints a pair for whatever identity the body names. Real logins
// happen upstream; outside prod this stands in for them.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv == "prod" {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
		return
	}
	var req tokenReq
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	who := identity.New(req.TenantID, req.UserID, req.Email, identity.RolesFromStrings(req.Roles)...)
	if err := who.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
		return
	}
	h.writePair(w, who)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req, false); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "validation", "invalid request", nil)
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	h.writePair(w, claims.Identity())
}
