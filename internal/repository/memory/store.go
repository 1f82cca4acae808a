// Package memory is an in-process Store used by tests and by the server when
// STORE=memory.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
)

// Store keeps one dataset per tenant. WithTx works on a copy of the tenant's
// dataset and swaps it in on success, so a failed unit leaves no trace.
type Store struct {
	mu        sync.Mutex
	tenants   map[string]*dataset
	appendErr error
}

type dataset struct {
	txns      map[string]models.Transaction
	txnOrder  []string
	banks     map[string]models.Bank
	bankOrder []string
	audit     []models.AuditLog
}

func NewStore() *Store {
	return &Store{tenants: map[string]*dataset{}}
}

// FailAuditAppends makes every subsequent audit Append return err. Pass nil
// to clear.
func (s *Store) FailAuditAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *Store) ForTenant(tenantID string) repo.Tenant {
	return &tenant{store: s, id: tenantID}
}

func newDataset() *dataset {
	return &dataset{
		txns:  map[string]models.Transaction{},
		banks: map[string]models.Bank{},
	}
}

func (d *dataset) clone() *dataset {
	cp := &dataset{
		txns:      make(map[string]models.Transaction, len(d.txns)),
		txnOrder:  append([]string(nil), d.txnOrder...),
		banks:     make(map[string]models.Bank, len(d.banks)),
		bankOrder: append([]string(nil), d.bankOrder...),
		audit:     append([]models.AuditLog(nil), d.audit...),
	}
	for k, v := range d.txns {
		cp.txns[k] = v
	}
	for k, v := range d.banks {
		cp.banks[k] = v
	}
	return cp
}

type tenant struct {
	store *Store
	id    string
}

func (t *tenant) TenantID() string { return t.id }

// WithTx holds the store lock for the whole unit; fn must not open another
// WithTx.
func (t *tenant) WithTx(ctx context.Context, fn func(repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	cur, ok := t.store.tenants[t.id]
	if !ok {
		cur = newDataset()
	}
	work := cur.clone()
	if err := fn(&memTx{tenantID: t.id, data: work, appendErr: t.store.appendErr}); err != nil {
		return err
	}
	t.store.tenants[t.id] = work
	return nil
}

type memTx struct {
	tenantID  string
	data      *dataset
	appendErr error
}

func (x *memTx) Transactions() repo.Transactions { return &transactions{x} }
func (x *memTx) Banks() repo.Banks               { return &banks{x} }
func (x *memTx) AuditLogs() repo.AuditLogs       { return &auditLogs{x} }

// ----------------- transactions -----------------

type transactions struct{ x *memTx }

func (r *transactions) FindByID(_ context.Context, id string) (models.Transaction, error) {
	t, ok := r.x.data.txns[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return r.withBranch(t), nil
}

func (r *transactions) FindByIDForUpdate(ctx context.Context, id string) (models.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *transactions) FindByBatchID(_ context.Context, batchID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, id := range r.x.data.txnOrder {
		if t := r.x.data.txns[id]; t.InBatch(batchID) {
			out = append(out, r.withBranch(t))
		}
	}
	return out, nil
}

func (r *transactions) FindByStatus(_ context.Context, status models.TransactionStatus) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(r.x.data.txnOrder) - 1; i >= 0; i-- {
		if t := r.x.data.txns[r.x.data.txnOrder[i]]; t.Status == status {
			out = append(out, r.withBranch(t))
		}
	}
	return out, nil
}

func (r *transactions) ListAll(_ context.Context) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(r.x.data.txnOrder))
	for i := len(r.x.data.txnOrder) - 1; i >= 0; i-- {
		out = append(out, r.withBranch(r.x.data.txns[r.x.data.txnOrder[i]]))
	}
	return out, nil
}

func (r *transactions) Persist(_ context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := r.x.data.txns[t.ID]; exists {
		return repo.ErrDuplicate
	}
	if _, ok := r.x.data.banks[t.BankID]; !ok {
		return repo.ErrNotFound
	}
	t.TenantID = r.x.tenantID
	r.x.data.txns[t.ID] = *t
	r.x.data.txnOrder = append(r.x.data.txnOrder, t.ID)
	*t = r.withBranch(*t)
	return nil
}

func (r *transactions) Update(_ context.Context, t models.Transaction) error {
	cur, ok := r.x.data.txns[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Status = t.Status
	cur.ApprovedBy = t.ApprovedBy
	cur.ApprovalNotes = t.ApprovalNotes
	cur.ApprovedAt = t.ApprovedAt
	cur.RejectedBy = t.RejectedBy
	cur.RejectionReason = t.RejectionReason
	cur.RejectedAt = t.RejectedAt
	cur.UpdatedAt = t.UpdatedAt
	r.x.data.txns[t.ID] = cur
	return nil
}

// withBranch resolves the bank reference the way the SQL join does.
func (r *transactions) withBranch(t models.Transaction) models.Transaction {
	if b, ok := r.x.data.banks[t.BankID]; ok {
		t.BankBranchCode = b.BranchCode
	}
	return t
}

// ----------------- banks -----------------

type banks struct{ x *memTx }

func (r *banks) FindByID(_ context.Context, id string) (models.Bank, error) {
	b, ok := r.x.data.banks[id]
	if !ok {
		return models.Bank{}, repo.ErrNotFound
	}
	return b, nil
}

func (r *banks) FindByBranchCode(_ context.Context, code string) (models.Bank, error) {
	for _, id := range r.x.data.bankOrder {
		if b := r.x.data.banks[id]; strings.EqualFold(b.BranchCode, code) {
			return b, nil
		}
	}
	return models.Bank{}, repo.ErrNotFound
}

func (r *banks) ListAll(_ context.Context) ([]models.Bank, error) {
	out := make([]models.Bank, 0, len(r.x.data.bankOrder))
	for _, id := range r.x.data.bankOrder {
		out = append(out, r.x.data.banks[id])
	}
	return out, nil
}

func (r *banks) ListActive(ctx context.Context) ([]models.Bank, error) {
	all, _ := r.ListAll(ctx)
	out := make([]models.Bank, 0, len(all))
	for _, b := range all {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *banks) Persist(ctx context.Context, b *models.Bank) error {
	if _, err := r.FindByBranchCode(ctx, b.BranchCode); err == nil {
		return repo.ErrDuplicate
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.TenantID = r.x.tenantID
	r.x.data.banks[b.ID] = *b
	r.x.data.bankOrder = append(r.x.data.bankOrder, b.ID)
	return nil
}

func (r *banks) Update(ctx context.Context, b models.Bank) error {
	cur, ok := r.x.data.banks[b.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if other, err := r.FindByBranchCode(ctx, b.BranchCode); err == nil && other.ID != b.ID {
		return repo.ErrDuplicate
	}
	b.TenantID = cur.TenantID
	b.CreatedAt = cur.CreatedAt
	r.x.data.banks[b.ID] = b
	return nil
}

// ----------------- audit logs -----------------

type auditLogs struct{ x *memTx }

func (r *auditLogs) LastHash(_ context.Context) (string, error) {
	if n := len(r.x.data.audit); n > 0 {
		return r.x.data.audit[n-1].Hash, nil
	}
	return "", nil
}

func (r *auditLogs) Append(_ context.Context, l *models.AuditLog) error {
	if r.x.appendErr != nil {
		return r.x.appendErr
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.TenantID = r.x.tenantID
	r.x.data.audit = append(r.x.data.audit, *l)
	return nil
}

func (r *auditLogs) ListAll(_ context.Context) ([]models.AuditLog, error) {
	return append([]models.AuditLog(nil), r.x.data.audit...), nil
}
