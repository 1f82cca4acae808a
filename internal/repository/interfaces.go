package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/paystream/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store hands out tenant-bound handles. Nothing below a Tenant can address
// another tenant's rows.
type Store interface {
	ForTenant(tenantID string) Tenant
}

type Tenant interface {
	TenantID() string
	// WithTx runs fn in one atomic unit: everything fn wrote persists when
	// it returns nil and nothing persists otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

type Tx interface {
	Transactions() Transactions
	Banks() Banks
	AuditLogs() AuditLogs
}

type Transactions interface {
	FindByID(ctx context.Context, id string) (models.Transaction, error)
	// FindByIDForUpdate locks the row until the surrounding WithTx ends.
	FindByIDForUpdate(ctx context.Context, id string) (models.Transaction, error)
	FindByBatchID(ctx context.Context, batchID string) ([]models.Transaction, error)
	FindByStatus(ctx context.Context, status models.TransactionStatus) ([]models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	// Persist inserts t, stamping the tenant and assigning an id when empty.
	Persist(ctx context.Context, t *models.Transaction) error
	// Update writes the mutable workflow fields.
	Update(ctx context.Context, t models.Transaction) error
}

type Banks interface {
	FindByID(ctx context.Context, id string) (models.Bank, error)
	FindByBranchCode(ctx context.Context, code string) (models.Bank, error)
	ListAll(ctx context.Context) ([]models.Bank, error)
	ListActive(ctx context.Context) ([]models.Bank, error)
	Persist(ctx context.Context, b *models.Bank) error
	Update(ctx context.Context, b models.Bank) error
}

type AuditLogs interface {
	// LastHash returns the newest entry's hash, or "" for an empty log.
	// Appends are serialized per tenant from this call until the end of
	// the surrounding WithTx.
	LastHash(ctx context.Context) (string, error)
	Append(ctx context.Context, l *models.AuditLog) error
	ListAll(ctx context.Context) ([]models.AuditLog, error)
}
