package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/paystream/internal/apperr"
	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/authz"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/metrics"
	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
	"github.com/baharkarakas/paystream/internal/validate"
	"github.com/baharkarakas/paystream/internal/worker"
)

type TransactionService struct {
	store      repo.Store
	audit      *audit.Recorder
	pool       *worker.Pool
	log        *slog.Logger
	now        func() time.Time
	newBatchID func() string
}

func NewTransactionService(store repo.Store, rec *audit.Recorder, pool *worker.Pool, log *slog.Logger) *TransactionService {
	return &TransactionService{
		store:      store,
		audit:      rec,
		pool:       pool,
		log:        log,
		now:        utcNow,
		newBatchID: uuid.NewString,
	}
}

// Column limits of transactions.amount numeric(19,4) and
// transactions.exchange_rate numeric(19,8).
const (
	amountIntDigits, amountScale = 15, 4
	rateIntDigits, rateScale     = 11, 8
)

type TransactionInput struct {
	AccountName    string           `json:"account_name"`
	AccountNumber  string           `json:"account_number"`
	BankBranchCode string           `json:"bank_branch_code"`
	Currency       string           `json:"currency"`
	Amount         decimal.Decimal  `json:"amount"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate,omitempty"`
}

func (in TransactionInput) validate() validate.Errs {
	return validate.Collect(
		validate.Required("account_name", in.AccountName),
		validate.Required("account_number", in.AccountNumber),
		validate.Required("bank_branch_code", in.BankBranchCode),
		validate.Length("currency", in.Currency, 3, 3),
		validate.Positive("amount", in.Amount),
		validate.Digits("amount", in.Amount, amountIntDigits, amountScale),
		validate.PositiveOpt("exchange_rate", in.ExchangeRate),
		validate.DigitsOpt("exchange_rate", in.ExchangeRate, rateIntDigits, rateScale),
	)
}

type BatchResult struct {
	BatchID      string               `json:"batch_id"`
	Transactions []models.Transaction `json:"transactions"`
}

type decisionDetail struct {
	Notes   string `json:"notes,omitempty"`
	Reason  string `json:"reason,omitempty"`
	BatchID string `json:"batch_id,omitempty"`
}

type batchDetail struct {
	BatchID string `json:"batchIdentifier"`
	Count   int    `json:"count"`
}

// ----------------- Helpers -----------------

func utcNow() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func observe(action string, err error) {
	result := "ok"
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			result = string(kind)
		} else {
			result = "error"
		}
	}
	metrics.TransitionsTotal.WithLabelValues(action, result).Inc()
}

func notFoundTxn(err error, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("transaction not found with id: %s", id)
	}
	return fmt.Errorf("load transaction %s: %w", id, err)
}

// createOne runs the create guard and persists one transaction plus its
// audit entry inside tx.
func (s *TransactionService) createOne(ctx context.Context, tx repo.Tx, who identity.Identity, in TransactionInput, batchID *string) (models.Transaction, error) {
	if errs := in.validate(); errs != nil {
		return models.Transaction{}, apperr.WithDetails(apperr.Validation("invalid transaction request: %s", errs.Error()), errs)
	}

	bank, err := tx.Banks().FindByBranchCode(ctx, strings.TrimSpace(in.BankBranchCode))
	if errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, apperr.Validation("bank not found with branch code: %s", in.BankBranchCode)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("find bank: %w", err)
	}
	if !bank.Active {
		return models.Transaction{}, apperr.Validation("bank with branch code %s is inactive", bank.BranchCode)
	}

	t := models.Transaction{
		AccountName:    strings.TrimSpace(in.AccountName),
		AccountNumber:  strings.TrimSpace(in.AccountNumber),
		BankID:         bank.ID,
		BankBranchCode: bank.BranchCode,
		Money: models.Money{
			Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
			Amount:       in.Amount,
			ExchangeRate: in.ExchangeRate,
		},
		Status:    models.StatusPendingApproval,
		BatchID:   batchID,
		CreatedBy: who.UserID,
		CreatedAt: s.now(),
	}
	if err := tx.Transactions().Persist(ctx, &t); err != nil {
		return models.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	if _, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
		EntityType: models.EntityTransaction,
		EntityID:   t.ID,
		Action:     models.ActionCreate,
		Detail:     in,
	}); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) approveOne(ctx context.Context, tx repo.Tx, who identity.Identity, id, notes, batchID string) (models.Transaction, error) {
	t, err := tx.Transactions().FindByIDForUpdate(ctx, id)
	if err != nil {
		return models.Transaction{}, notFoundTxn(err, id)
	}
	if err := checkApprove(t, who.UserID); err != nil {
		return models.Transaction{}, err
	}

	notes = strings.TrimSpace(notes)
	applyApprove(&t, who.UserID, notes, s.now())
	if err := tx.Transactions().Update(ctx, t); err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if _, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
		EntityType: models.EntityTransaction,
		EntityID:   t.ID,
		Action:     models.ActionApprove,
		Detail:     decisionDetail{Notes: notes, BatchID: batchID},
	}); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) rejectOne(ctx context.Context, tx repo.Tx, who identity.Identity, id, reason, batchID string) (models.Transaction, error) {
	t, err := tx.Transactions().FindByIDForUpdate(ctx, id)
	if err != nil {
		return models.Transaction{}, notFoundTxn(err, id)
	}
	if err := checkReject(t); err != nil {
		return models.Transaction{}, err
	}

	applyReject(&t, who.UserID, reason, s.now())
	if err := tx.Transactions().Update(ctx, t); err != nil {
		return models.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if _, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
		EntityType: models.EntityTransaction,
		EntityID:   t.ID,
		Action:     models.ActionReject,
		Detail:     decisionDetail{Reason: *t.RejectionReason, BatchID: batchID},
	}); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// ----------------- CREATE -----------------

func (s *TransactionService) Create(ctx context.Context, who identity.Identity, in TransactionInput) (out models.Transaction, err error) {
	defer func() { observe("create", err) }()
	if err := authz.Authorize(authz.OpCreate, who); err != nil {
		return models.Transaction{}, err
	}

	err = s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		t, err := s.createOne(ctx, tx, who, in, nil)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info("transaction created", "tenant", who.TenantID, "id", out.ID, "actor", who.UserID)
	return out, nil
}

// CreateBulk is all-or-nothing: one failing item aborts the unit and nothing,
// audit entries included, is kept.
func (s *TransactionService) CreateBulk(ctx context.Context, who identity.Identity, ins []TransactionInput) (out BatchResult, err error) {
	defer func() { observe("create_bulk", err) }()
	if err := authz.Authorize(authz.OpCreateBulk, who); err != nil {
		return BatchResult{}, err
	}
	if len(ins) == 0 {
		return BatchResult{}, apperr.Validation("at least one transaction is required")
	}

	batchID := s.newBatchID()
	created := make([]models.Transaction, 0, len(ins))
	err = s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		for i, in := range ins {
			t, err := s.createOne(ctx, tx, who, in, &batchID)
			if err != nil {
				return fmt.Errorf("transactions[%d]: %w", i, err)
			}
			created = append(created, t)
		}
		_, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
			EntityType: models.EntityTransactionBatch,
			EntityID:   batchID,
			Action:     models.ActionCreate,
			Detail:     batchDetail{BatchID: batchID, Count: len(created)},
		})
		return err
	})
	if err != nil {
		return BatchResult{}, err
	}

	metrics.BatchSize.WithLabelValues("create_bulk").Observe(float64(len(created)))
	s.log.Info("transaction batch created", "tenant", who.TenantID, "batch_id", batchID, "count", len(created), "actor", who.UserID)
	return BatchResult{BatchID: batchID, Transactions: created}, nil
}

// ----------------- APPROVE / REJECT -----------------

func (s *TransactionService) Approve(ctx context.Context, who identity.Identity, id, notes string) (out models.Transaction, err error) {
	defer func() { observe("approve", err) }()
	if err := authz.Authorize(authz.OpApprove, who); err != nil {
		return models.Transaction{}, err
	}

	err = s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = s.approveOne(ctx, tx, who, id, notes, "")
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info("transaction approved", "tenant", who.TenantID, "id", id, "actor", who.UserID)
	return out, nil
}

func (s *TransactionService) Reject(ctx context.Context, who identity.Identity, id, reason string) (out models.Transaction, err error) {
	defer func() { observe("reject", err) }()
	if err := authz.Authorize(authz.OpReject, who); err != nil {
		return models.Transaction{}, err
	}
	if err := requireReason(reason); err != nil {
		return models.Transaction{}, err
	}

	err = s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = s.rejectOne(ctx, tx, who, id, reason, "")
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.log.Info("transaction rejected", "tenant", who.TenantID, "id", id, "actor", who.UserID)
	return out, nil
}

// ----------------- BATCH -----------------

// BatchApprove approves every pending member the caller is allowed to
// approve. Members failing the guard are skipped, not reported.
func (s *TransactionService) BatchApprove(ctx context.Context, who identity.Identity, batchID, notes string) (out []models.Transaction, err error) {
	defer func() { observe("batch_approve", err) }()
	if err := authz.Authorize(authz.OpBatchApprove, who); err != nil {
		return nil, err
	}
	return s.batchTransition(ctx, who, batchID, "batch_approve", func(tx repo.Tx, id string) (models.Transaction, error) {
		return s.approveOne(ctx, tx, who, id, notes, batchID)
	})
}

func (s *TransactionService) BatchReject(ctx context.Context, who identity.Identity, batchID, reason string) (out []models.Transaction, err error) {
	defer func() { observe("batch_reject", err) }()
	if err := authz.Authorize(authz.OpBatchReject, who); err != nil {
		return nil, err
	}
	if err := requireReason(reason); err != nil {
		return nil, err
	}
	return s.batchTransition(ctx, who, batchID, "batch_reject", func(tx repo.Tx, id string) (models.Transaction, error) {
		return s.rejectOne(ctx, tx, who, id, reason, batchID)
	})
}

// batchTransition picks the pending members once, then moves each in its own
// unit so one member's failure never undoes another's success. The walk runs
// on the worker pool.
func (s *TransactionService) batchTransition(ctx context.Context, who identity.Identity, batchID, action string, step func(repo.Tx, string) (models.Transaction, error)) ([]models.Transaction, error) {
	tenant := s.store.ForTenant(who.TenantID)

	var candidates []string
	err := tenant.WithTx(ctx, func(tx repo.Tx) error {
		members, err := tx.Transactions().FindByBatchID(ctx, batchID)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		if len(members) == 0 {
			return apperr.NotFound("batch not found with id: %s", batchID)
		}
		for _, m := range members {
			if m.Status == models.StatusPendingApproval {
				candidates = append(candidates, m.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var (
		out     []models.Transaction
		walkErr error
	)
	if err := s.pool.Run(ctx, func() {
		out, walkErr = s.moveMembers(ctx, tenant, who, batchID, action, candidates, step)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	if walkErr != nil {
		return nil, walkErr
	}

	metrics.BatchSize.WithLabelValues(action).Observe(float64(len(out)))
	s.log.Info("batch processed", "action", action, "tenant", who.TenantID, "batch_id", batchID,
		"pending", len(candidates), "transitioned", len(out), "actor", who.UserID)
	return out, nil
}

// moveMembers walks the candidates in batch order. Guard failures skip the
// member; anything else stops the walk, leaving earlier members committed.
func (s *TransactionService) moveMembers(ctx context.Context, tenant repo.Tenant, who identity.Identity, batchID, action string, candidates []string, step func(repo.Tx, string) (models.Transaction, error)) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(candidates))
	for _, id := range candidates {
		var t models.Transaction
		err := tenant.WithTx(ctx, func(tx repo.Tx) error {
			var err error
			t, err = step(tx, id)
			return err
		})
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok {
				s.log.Debug("batch member skipped", "tenant", who.TenantID, "batch_id", batchID, "id", id, "kind", kind, "reason", err.Error())
				continue
			}
			return nil, fmt.Errorf("%s %s: %w", action, id, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// ----------------- Queries -----------------

func (s *TransactionService) GetByID(ctx context.Context, who identity.Identity, id string) (models.Transaction, error) {
	if err := authz.Authorize(authz.OpRead, who); err != nil {
		return models.Transaction{}, err
	}
	var out models.Transaction
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		t, err := tx.Transactions().FindByID(ctx, id)
		if err != nil {
			return notFoundTxn(err, id)
		}
		out = t
		return nil
	})
	return out, err
}

func (s *TransactionService) ListByBatch(ctx context.Context, who identity.Identity, batchID string) ([]models.Transaction, error) {
	if err := authz.Authorize(authz.OpRead, who); err != nil {
		return nil, err
	}
	var out []models.Transaction
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = tx.Transactions().FindByBatchID(ctx, batchID)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		if len(out) == 0 {
			return apperr.NotFound("batch not found with id: %s", batchID)
		}
		return nil
	})
	return out, err
}

func (s *TransactionService) ListByStatus(ctx context.Context, who identity.Identity, status string) ([]models.Transaction, error) {
	if err := authz.Authorize(authz.OpRead, who); err != nil {
		return nil, err
	}
	st, ok := models.ParseTransactionStatus(status)
	if !ok {
		return nil, apperr.WithDetails(apperr.Validation("invalid status: %s", status), models.AllStatuses())
	}
	var out []models.Transaction
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = tx.Transactions().FindByStatus(ctx, st)
		return err
	})
	return orEmpty(out), err
}

func (s *TransactionService) List(ctx context.Context, who identity.Identity) ([]models.Transaction, error) {
	if err := authz.Authorize(authz.OpRead, who); err != nil {
		return nil, err
	}
	var out []models.Transaction
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = tx.Transactions().ListAll(ctx)
		return err
	})
	return orEmpty(out), err
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
