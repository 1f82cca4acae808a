package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/services"
)

type AuditHandler struct {
	Svc *services.AuditService
	Log *slog.Logger
}

func NewAuditHandler(svc *services.AuditService, log *slog.Logger) *AuditHandler {
	return &AuditHandler{Svc: svc, Log: log}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.List(r.Context(), caller(r))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Svc.Verify(r.Context(), caller(r))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}
