package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/services"
)

type BankHandler struct {
	Svc *services.BankService
	Log *slog.Logger
}

func NewBankHandler(svc *services.BankService, log *slog.Logger) *BankHandler {
	return &BankHandler{Svc: svc, Log: log}
}

func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.BankInput
	if err := httpx.DecodeJSON(r, &in, false); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	b, err := h.Svc.Create(r.Context(), caller(r), in)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (h *BankHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.BankInput
	if err := httpx.DecodeJSON(r, &in, false); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	b, err := h.Svc.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BankHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.ToggleStatus(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BankHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Deactivate(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BankHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.GetByID(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Svc.List(r.Context(), caller(r))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bs)
}

func (h *BankHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Svc.ListActive(r.Context(), caller(r))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bs)
}
