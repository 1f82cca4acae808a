package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/paystream/internal/repository"
)

// querier is the part of pgx.Tx the repos use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct{ pool *pgxpool.Pool }

func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) ForTenant(tenantID string) repo.Tenant {
	return &tenant{pool: s.pool, id: tenantID}
}

type tenant struct {
	pool *pgxpool.Pool
	id   string
}

func (t *tenant) TenantID() string { return t.id }

// WithTx runs fn in one READ COMMITTED transaction. Row locks taken with
// FindByIDForUpdate make concurrent writers queue and then see the committed
// state instead of failing with a serialization error.
func (t *tenant) WithTx(ctx context.Context, fn func(repo.Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&pgTx{q: tx, tenantID: t.id}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	q        querier
	tenantID string
}

func (x *pgTx) Transactions() repo.Transactions { return &transactionsRepo{q: x.q, tenantID: x.tenantID} }
func (x *pgTx) Banks() repo.Banks               { return &banksRepo{q: x.q, tenantID: x.tenantID} }
func (x *pgTx) AuditLogs() repo.AuditLogs       { return &auditLogsRepo{q: x.q, tenantID: x.tenantID} }

const uniqueViolation = "23505"

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repo.ErrDuplicate
	}
	return err
}
