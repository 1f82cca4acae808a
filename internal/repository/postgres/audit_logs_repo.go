package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/paystream/internal/models"
)

type auditLogsRepo struct {
	q        querier
	tenantID string
}

// LastHash takes a transaction-scoped advisory lock on the tenant so the
// read-then-append of the hash chain cannot interleave with another writer.
func (r *auditLogsRepo) LastHash(ctx context.Context) (string, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('audit_logs:' || $1))`, r.tenantID); err != nil {
		return "", err
	}
	var h string
	err := r.q.QueryRow(ctx,
		`SELECT hash FROM audit_logs WHERE tenant_id = $1 ORDER BY seq DESC LIMIT 1`, r.tenantID,
	).Scan(&h)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return h, err
}

func (r *auditLogsRepo) Append(ctx context.Context, l *models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.TenantID = r.tenantID
	_, err := r.q.Exec(ctx, `
INSERT INTO audit_logs (id, tenant_id, entity_type, entity_id, action, user_id, details, prev_hash, hash, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		l.ID, l.TenantID, l.EntityType, l.EntityID, l.Action, l.UserID, l.Details, l.PrevHash, l.Hash, l.CreatedAt,
	)
	return mapErr(err)
}

func (r *auditLogsRepo) ListAll(ctx context.Context) ([]models.AuditLog, error) {
	rows, err := r.q.Query(ctx, `
SELECT id, tenant_id, entity_type, entity_id, action, user_id, details, prev_hash, hash, created_at
  FROM audit_logs
 WHERE tenant_id = $1
 ORDER BY seq`, r.tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.EntityType, &l.EntityID, &l.Action, &l.UserID,
			&l.Details, &l.PrevHash, &l.Hash, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
