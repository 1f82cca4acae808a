package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/paystream/internal/models"
)

type transactionsRepo struct {
	q        querier
	tenantID string
}

const selectTxn = `
SELECT t.id, t.tenant_id, t.account_name, t.account_number, t.bank_id, b.branch_code,
       t.currency, t.amount, t.exchange_rate, t.status, t.batch_id, t.created_by,
       t.approved_by, t.approval_notes, t.approved_at,
       t.rejected_by, t.rejection_reason, t.rejected_at,
       t.created_at, t.updated_at
  FROM transactions t
  JOIN banks b ON b.id = t.bank_id AND b.tenant_id = t.tenant_id
 WHERE t.tenant_id = $1`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var (
		t    models.Transaction
		rate decimal.NullDecimal
	)
	err := row.Scan(
		&t.ID, &t.TenantID, &t.AccountName, &t.AccountNumber, &t.BankID, &t.BankBranchCode,
		&t.Money.Currency, &t.Money.Amount, &rate, &t.Status, &t.BatchID, &t.CreatedBy,
		&t.ApprovedBy, &t.ApprovalNotes, &t.ApprovedAt,
		&t.RejectedBy, &t.RejectionReason, &t.RejectedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	if rate.Valid {
		t.Money.ExchangeRate = &rate.Decimal
	}
	return t, nil
}

func (r *transactionsRepo) FindByID(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTxn(r.q.QueryRow(ctx, selectTxn+` AND t.id = $2`, r.tenantID, id))
	return t, mapErr(err)
}

func (r *transactionsRepo) FindByIDForUpdate(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTxn(r.q.QueryRow(ctx, selectTxn+` AND t.id = $2 FOR UPDATE OF t`, r.tenantID, id))
	return t, mapErr(err)
}

func (r *transactionsRepo) FindByBatchID(ctx context.Context, batchID string) ([]models.Transaction, error) {
	return r.list(ctx, selectTxn+` AND t.batch_id = $2 ORDER BY t.created_at, t.seq`, r.tenantID, batchID)
}

func (r *transactionsRepo) FindByStatus(ctx context.Context, status models.TransactionStatus) ([]models.Transaction, error) {
	return r.list(ctx, selectTxn+` AND t.status = $2 ORDER BY t.created_at DESC, t.seq DESC`, r.tenantID, status)
}

func (r *transactionsRepo) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return r.list(ctx, selectTxn+` ORDER BY t.created_at DESC, t.seq DESC`, r.tenantID)
}

func (r *transactionsRepo) list(ctx context.Context, q string, args ...any) ([]models.Transaction, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) Persist(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TenantID = r.tenantID

	var rate decimal.NullDecimal
	if t.Money.ExchangeRate != nil {
		rate = decimal.NewNullDecimal(*t.Money.ExchangeRate)
	}
	const q = `
INSERT INTO transactions (
  id, tenant_id, account_name, account_number, bank_id,
  currency, amount, exchange_rate, status, batch_id, created_by, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING (SELECT branch_code FROM banks WHERE id = $5 AND tenant_id = $2)`
	err := r.q.QueryRow(ctx, q,
		t.ID, t.TenantID, t.AccountName, t.AccountNumber, t.BankID,
		t.Money.Currency, t.Money.Amount, rate, t.Status, t.BatchID, t.CreatedBy, t.CreatedAt,
	).Scan(&t.BankBranchCode)
	return mapErr(err)
}

func (r *transactionsRepo) Update(ctx context.Context, t models.Transaction) error {
	updatedAt := time.Now().UTC()
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}
	tag, err := r.q.Exec(ctx, `
UPDATE transactions
   SET status = $3,
       approved_by = $4, approval_notes = $5, approved_at = $6,
       rejected_by = $7, rejection_reason = $8, rejected_at = $9,
       updated_at = $10
 WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, t.ID, t.Status,
		t.ApprovedBy, t.ApprovalNotes, t.ApprovedAt,
		t.RejectedBy, t.RejectionReason, t.RejectedAt,
		updatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}
