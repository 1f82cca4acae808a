package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/paystream/internal/models"
)

type banksRepo struct {
	q        querier
	tenantID string
}

const selectBank = `
SELECT id, tenant_id, name, branch_code, address, contact_phone, contact_email,
       is_active, created_at, updated_at
  FROM banks
 WHERE tenant_id = $1`

func scanBank(row pgx.Row) (models.Bank, error) {
	var b models.Bank
	err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.BranchCode, &b.Address, &b.ContactPhone,
		&b.ContactEmail, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *banksRepo) FindByID(ctx context.Context, id string) (models.Bank, error) {
	b, err := scanBank(r.q.QueryRow(ctx, selectBank+` AND id = $2`, r.tenantID, id))
	return b, mapErr(err)
}

func (r *banksRepo) FindByBranchCode(ctx context.Context, code string) (models.Bank, error) {
	b, err := scanBank(r.q.QueryRow(ctx, selectBank+` AND lower(branch_code) = lower($2)`, r.tenantID, code))
	return b, mapErr(err)
}

func (r *banksRepo) ListAll(ctx context.Context) ([]models.Bank, error) {
	return r.list(ctx, selectBank+` ORDER BY created_at`, r.tenantID)
}

func (r *banksRepo) ListActive(ctx context.Context) ([]models.Bank, error) {
	return r.list(ctx, selectBank+` AND is_active ORDER BY created_at`, r.tenantID)
}

func (r *banksRepo) list(ctx context.Context, q string, args ...any) ([]models.Bank, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Bank
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *banksRepo) Persist(ctx context.Context, b *models.Bank) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.TenantID = r.tenantID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `
INSERT INTO banks (id, tenant_id, name, branch_code, address, contact_phone, contact_email, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.TenantID, b.Name, b.BranchCode, b.Address, b.ContactPhone, b.ContactEmail, b.Active, b.CreatedAt,
	)
	return mapErr(err)
}

func (r *banksRepo) Update(ctx context.Context, b models.Bank) error {
	tag, err := r.q.Exec(ctx, `
UPDATE banks
   SET name = $3, branch_code = $4, address = $5, contact_phone = $6,
       contact_email = $7, is_active = $8, updated_at = $9
 WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, b.ID, b.Name, b.BranchCode, b.Address, b.ContactPhone, b.ContactEmail, b.Active, b.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}
