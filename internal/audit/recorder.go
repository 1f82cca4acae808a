// Package audit appends hash-chained audit entries inside the caller's
// transactional scope.
package audit

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/metrics"
	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
)

const serializeFailedPrefix = "failed to serialize details: "

type Recorder struct {
	log     *slog.Logger
	now     func() time.Time
	marshal func(any) ([]byte, error)
}

func NewRecorder(log *slog.Logger) *Recorder {
	return &Recorder{
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		marshal: json.Marshal,
	}
}

// WithMarshal swaps the detail encoder, which is JSON by default.
func (r *Recorder) WithMarshal(m func(any) ([]byte, error)) *Recorder {
	r.marshal = m
	return r
}

// Event is one thing worth recording. EntityID may be empty for events about
// no single row.
type Event struct {
	EntityType string
	EntityID   string
	Action     string
	Detail     any
}

// Record appends ev to logs on behalf of who. A detail that cannot be
// serialized never fails the call; the entry is written with a fallback
// string instead. Only a storage failure is returned, and the caller's unit
// is then expected to roll back.
func (r *Recorder) Record(ctx context.Context, logs repo.AuditLogs, who identity.Identity, ev Event) (models.AuditLog, error) {
	entry := models.AuditLog{
		TenantID:   who.TenantID,
		EntityType: ev.EntityType,
		Action:     ev.Action,
		UserID:     who.UserID,
		Details:    r.details(ev),
		CreatedAt:  r.now().UTC().Truncate(time.Microsecond),
	}
	if ev.EntityID != "" {
		id := ev.EntityID
		entry.EntityID = &id
	}

	prev, err := logs.LastHash(ctx)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("audit chain head: %w", err)
	}
	entry.PrevHash = prev
	entry.Hash = Hash(entry)

	if err := logs.Append(ctx, &entry); err != nil {
		return models.AuditLog{}, fmt.Errorf("append audit entry: %w", err)
	}
	metrics.AuditEntriesTotal.WithLabelValues(ev.EntityType, ev.Action).Inc()
	return entry, nil
}

func (r *Recorder) details(ev Event) string {
	if ev.Detail == nil {
		return ""
	}
	b, err := r.marshal(ev.Detail)
	if err != nil {
		metrics.AuditSerializationFailures.Inc()
		r.log.Warn("audit detail serialization failed",
			"entity_type", ev.EntityType, "entity_id", ev.EntityID, "action", ev.Action, "err", err)
		return serializeFailedPrefix + err.Error()
	}
	return string(b)
}

// Hash is the chain digest of an entry: blake2b-256 over the previous hash
// and every field the entry is judged by.
func Hash(l models.AuditLog) string {
	entityID := ""
	if l.EntityID != nil {
		entityID = *l.EntityID
	}
	fields := []string{
		l.PrevHash,
		l.TenantID,
		l.EntityType,
		entityID,
		l.Action,
		l.UserID,
		l.Details,
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	sum := blake2b.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Verify walks entries oldest first. It returns -1 when the chain is intact,
// otherwise the index of the first entry whose link or digest does not match.
func Verify(entries []models.AuditLog) int {
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev || Hash(e) != e.Hash {
			return i
		}
		prev = e.Hash
	}
	return -1
}
