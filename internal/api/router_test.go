package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/config"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/models"
	"github.com/baharkarakas/paystream/internal/repository/memory"
	"github.com/baharkarakas/paystream/internal/services"
	"github.com/baharkarakas/paystream/internal/worker"
)

type testAPI struct {
	t      *testing.T
	h      http.Handler
	tokens *auth.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	rec := audit.NewRecorder(log)
	pool := worker.NewPool(2)
	t.Cleanup(pool.Stop)
	tokens := auth.NewTokenManager("a", "r", "paystream", time.Minute, time.Hour)

	banks := services.NewBankService(store, rec, log)
	_, err := banks.Create(context.Background(), identity.New("t1", "root", "", identity.RoleAdmin),
		services.BankInput{Name: "First Bank", BranchCode: "BR001"})
	require.NoError(t, err)

	h := NewRouter(RouterDeps{
		Cfg:      config.Config{Env: "dev", IdentityMode: config.IdentityBoth},
		Log:      log,
		Tokens:   tokens,
		TxnSvc:   services.NewTransactionService(store, rec, pool, log),
		BankSvc:  banks,
		AuditSvc: services.NewAuditService(store),
	})
	return &testAPI{t: t, h: h, tokens: tokens}
}

func (a *testAPI) do(method, path, user, roles string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-Tenant-ID", "t1")
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-User-Roles", roles)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const (
	creator  = "TRANSACTION_CREATOR"
	approver = "TRANSACTION_APPROVER"
	viewer   = "TRANSACTION_VIEWER"
)

var payment = map[string]any{
	"account_name":     "ACME Ltd",
	"account_number":   "0012345678",
	"bank_branch_code": "BR001",
	"currency":         "USD",
	"amount":           "100.00",
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/transactions", "alice", creator, payment)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeInto[models.Transaction](t, rec)
	assert.Equal(t, models.StatusPendingApproval, tx.Status)
	assert.Equal(t, "alice", tx.CreatedBy)

	rec = a.do(http.MethodPut, "/api/v1/transactions/"+tx.ID+"/approve", "bob", approver, map[string]string{"notes": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx = decodeInto[models.Transaction](t, rec)
	assert.Equal(t, models.StatusApproved, tx.Status)
	assert.Equal(t, "bob", *tx.ApprovedBy)

	rec = a.do(http.MethodPut, "/api/v1/transactions/"+tx.ID+"/approve", "carol", approver, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/transactions/status/approved", "vic", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeInto[[]models.Transaction](t, rec), 1)

	rec = a.do(http.MethodGet, "/api/v1/audit/verify", "root", "ADMIN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decodeInto[services.ChainReport](t, rec)
	assert.True(t, rep.Valid)
	assert.Equal(t, 3, rep.Entries)
}

func TestErrorStatuses(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPost, "/api/v1/transactions", "dana", creator+","+approver, payment)
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := decodeInto[models.Transaction](t, rec)

	tests := []struct {
		name, method, path, user, roles string
		body                            any
		want                            int
	}{
		{"self approval", http.MethodPut, "/api/v1/transactions/" + tx.ID + "/approve", "dana", creator + "," + approver, nil, http.StatusForbidden},
		{"missing role", http.MethodPost, "/api/v1/transactions", "vic", viewer, payment, http.StatusForbidden},
		{"unknown id", http.MethodGet, "/api/v1/transactions/nope", "vic", viewer, nil, http.StatusNotFound},
		{"unknown batch", http.MethodPut, "/api/v1/transactions/batch/nope/approve", "bob", approver, nil, http.StatusNotFound},
		{"reject without reason", http.MethodPut, "/api/v1/transactions/" + tx.ID + "/reject", "bob", approver, map[string]string{}, http.StatusBadRequest},
		{"bad status", http.MethodGet, "/api/v1/transactions/status/settled", "vic", viewer, nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/transactions", "alice", creator, map[string]string{"amount_usd": "1"}, http.StatusBadRequest},
		{"no identity", http.MethodGet, "/api/v1/transactions", "", "", nil, http.StatusBadRequest},
		{"audit needs admin", http.MethodGet, "/api/v1/audit", "bob", approver, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, tt.user, tt.roles, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBulkAndBatchOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodPost, "/api/v1/transactions/bulk", "alice", creator,
		map[string]any{"transactions": []any{payment, payment}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeInto[services.BatchResult](t, rec)
	require.Len(t, res.Transactions, 2)

	rec = a.do(http.MethodPut, "/api/v1/transactions/batch/"+res.BatchID+"/reject", "bob", approver,
		map[string]string{"reason": "duplicate upload"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeInto[[]models.Transaction](t, rec), 2)

	rec = a.do(http.MethodGet, "/api/v1/transactions/batch/"+res.BatchID, "vic", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, tx := range decodeInto[[]models.Transaction](t, rec) {
		assert.Equal(t, models.StatusRejected, tx.Status)
	}
}

func TestBearerTokenFlow(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/auth/token", "", "", map[string]any{
		"tenant_id": "t1", "user_id": "vic", "roles": []string{viewer},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decodeInto[map[string]any](t, rec)
	access, _ := tok["access_token"].(string)
	refresh, _ := tok["refresh_token"].(string)
	require.NotEmpty(t, access)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banks/active", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	got := httptest.NewRecorder()
	a.h.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Len(t, decodeInto[[]models.Bank](t, got), 1)

	rec = a.do(http.MethodPost, "/api/v1/auth/refresh", "", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPost, "/api/v1/auth/refresh", "", "", map[string]string{"refresh_token": access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
