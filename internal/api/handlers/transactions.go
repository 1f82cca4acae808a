package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/paystream/internal/api/httpx"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/services"
)

type TransactionHandler struct {
	Svc *services.TransactionService
	Log *slog.Logger
}

func NewTransactionHandler(svc *services.TransactionService, log *slog.Logger) *TransactionHandler {
	return &TransactionHandler{Svc: svc, Log: log}
}

// caller returns the identity Auth placed in the context. Routes are only
// mounted behind Auth, so a missing one is a wiring bug.
func caller(r *http.Request) identity.Identity {
	who, _ := identity.FromContext(r.Context())
	return who
}

type bulkReq struct {
	Transactions []services.TransactionInput `json:"transactions"`
}

type approveReq struct {
	Notes string `json:"notes"`
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if err := httpx.DecodeJSON(r, &in, false); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	tx, err := h.Svc.Create(r.Context(), caller(r), in)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkReq
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	res, err := h.Svc.CreateBulk(r.Context(), caller(r), req.Transactions)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveReq
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	tx, err := h.Svc.Approve(r.Context(), caller(r), chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectReq
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	tx, err := h.Svc.Reject(r.Context(), caller(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) BatchApprove(w http.ResponseWriter, r *http.Request) {
	var req approveReq
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	txs, err := h.Svc.BatchApprove(r.Context(), caller(r), chi.URLParam(r, "batchId"), req.Notes)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) BatchReject(w http.ResponseWriter, r *http.Request) {
	var req rejectReq
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	txs, err := h.Svc.BatchReject(r.Context(), caller(r), chi.URLParam(r, "batchId"), req.Reason)
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Svc.GetByID(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.List(r.Context(), caller(r))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) ListByBatch(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.ListByBatch(r.Context(), caller(r), chi.URLParam(r, "batchId"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.ListByStatus(r.Context(), caller(r), chi.URLParam(r, "status"))
	if err != nil {
		httpx.WriteAppError(w, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}
