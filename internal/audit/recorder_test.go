package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
	"github.com/baharkarakas/paystream/internal/repository/memory"
)

func newRecorder() *Recorder {
	r := NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := time.Date(2025, 3, 22, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { ts = ts.Add(time.Second); return ts }
	return r
}

func record(t *testing.T, s *memory.Store, r *Recorder, who identity.Identity, ev Event) models.AuditLog {
	t.Helper()
	var out models.AuditLog
	err := s.ForTenant(who.TenantID).WithTx(context.Background(), func(tx repo.Tx) error {
		var err error
		out, err = r.Record(context.Background(), tx.AuditLogs(), who, ev)
		return err
	})
	require.NoError(t, err)
	return out
}

func listAll(t *testing.T, s *memory.Store, tenantID string) []models.AuditLog {
	t.Helper()
	var out []models.AuditLog
	require.NoError(t, s.ForTenant(tenantID).WithTx(context.Background(), func(tx repo.Tx) error {
		var err error
		out, err = tx.AuditLogs().ListAll(context.Background())
		return err
	}))
	return out
}

func TestRecordSerializesDetail(t *testing.T) {
	s := memory.NewStore()
	who := identity.New("t1", "alice", "")

	e := record(t, s, newRecorder(), who, Event{
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Action:     models.ActionApprove,
		Detail:     map[string]string{"notes": "ok"},
	})

	assert.Equal(t, "t1", e.TenantID)
	assert.Equal(t, "alice", e.UserID)
	require.NotNil(t, e.EntityID)
	assert.Equal(t, "tx-1", *e.EntityID)
	assert.JSONEq(t, `{"notes":"ok"}`, e.Details)
	assert.Empty(t, e.PrevHash)
	assert.Len(t, e.Hash, 64)
}

func TestRecordFallsBackWhenDetailCannotSerialize(t *testing.T) {
	s := memory.NewStore()
	who := identity.New("t1", "alice", "")

	e := record(t, s, newRecorder(), who, Event{
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Action:     models.ActionCreate,
		Detail:     map[string]any{"ch": make(chan int)},
	})

	assert.True(t, strings.HasPrefix(e.Details, "failed to serialize details: "), e.Details)
	assert.Len(t, listAll(t, s, "t1"), 1)
}

func TestRecordWithoutEntityID(t *testing.T) {
	s := memory.NewStore()
	e := record(t, s, newRecorder(), identity.New("t1", "alice", ""), Event{
		EntityType: models.EntityTransactionBatch,
		Action:     models.ActionCreate,
	})
	assert.Nil(t, e.EntityID)
	assert.Empty(t, e.Details)
}

func TestRecordPropagatesStorageFailure(t *testing.T) {
	s := memory.NewStore()
	s.FailAuditAppends(errors.New("disk full"))

	err := s.ForTenant("t1").WithTx(context.Background(), func(tx repo.Tx) error {
		_, err := newRecorder().Record(context.Background(), tx.AuditLogs(), identity.New("t1", "u", ""), Event{Action: "X"})
		return err
	})
	assert.ErrorContains(t, err, "disk full")
}

func TestChainLinksAndVerifies(t *testing.T) {
	s := memory.NewStore()
	r := newRecorder()
	who := identity.New("t1", "alice", "")

	first := record(t, s, r, who, Event{EntityType: "Bank", EntityID: "b1", Action: models.ActionCreate})
	second := record(t, s, r, who, Event{EntityType: "Bank", EntityID: "b1", Action: models.ActionUpdate})
	assert.Equal(t, first.Hash, second.PrevHash)

	// other tenants have their own chain
	other := record(t, s, r, identity.New("t2", "bob", ""), Event{EntityType: "Bank", Action: models.ActionCreate})
	assert.Empty(t, other.PrevHash)

	entries := listAll(t, s, "t1")
	assert.Equal(t, -1, Verify(entries))

	entries[0].Details = `{"tampered":true}`
	assert.Equal(t, 0, Verify(entries))

	entries = listAll(t, s, "t1")
	entries[1].PrevHash = "deadbeef"
	assert.Equal(t, 1, Verify(entries))

	assert.Equal(t, -1, Verify(nil))
}

func TestHashDependsOnEveryField(t *testing.T) {
	id := "x"
	base := models.AuditLog{
		TenantID: "t", EntityType: "E", EntityID: &id, Action: "A", UserID: "u",
		Details: "d", CreatedAt: time.Unix(0, 0),
	}
	h := Hash(base)

	mutations := []func(*models.AuditLog){
		func(l *models.AuditLog) { l.TenantID = "t2" },
		func(l *models.AuditLog) { l.EntityType = "E2" },
		func(l *models.AuditLog) { l.EntityID = nil },
		func(l *models.AuditLog) { l.Action = "B" },
		func(l *models.AuditLog) { l.UserID = "v" },
		func(l *models.AuditLog) { l.Details = "e" },
		func(l *models.AuditLog) { l.CreatedAt = time.Unix(1, 0) },
		func(l *models.AuditLog) { l.PrevHash = "p" },
	}
	for i, m := range mutations {
		cp := base
		m(&cp)
		assert.NotEqual(t, h, Hash(cp), "mutation %d", i)
	}
}
