package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baharkarakas/paystream/internal/apperr"
	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/authz"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
	"github.com/baharkarakas/paystream/internal/validate"
)

// BankService owns the bank directory the transaction engine consults.
type BankService struct {
	store repo.Store
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

func NewBankService(store repo.Store, rec *audit.Recorder, log *slog.Logger) *BankService {
	return &BankService{store: store, audit: rec, log: log, now: utcNow}
}

type BankInput struct {
	Name         string `json:"name" yaml:"name"`
	BranchCode   string `json:"branch_code" yaml:"branch_code"`
	Address      string `json:"address,omitempty" yaml:"address"`
	ContactPhone string `json:"contact_phone,omitempty" yaml:"contact_phone"`
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email"`
	// nil means active on create and unchanged on update
	Active *bool `json:"active,omitempty" yaml:"active"`
}

func (in BankInput) validate() error {
	errs := validate.Collect(
		validate.Required("name", in.Name),
		validate.Length("branch_code", in.BranchCode, 3, 20),
	)
	if errs != nil {
		return apperr.WithDetails(apperr.Validation("invalid bank request: %s", errs.Error()), errs)
	}
	return nil
}

func (in BankInput) apply(b *models.Bank) {
	b.Name = strings.TrimSpace(in.Name)
	b.BranchCode = strings.TrimSpace(in.BranchCode)
	b.Address = strings.TrimSpace(in.Address)
	b.ContactPhone = strings.TrimSpace(in.ContactPhone)
	b.ContactEmail = strings.TrimSpace(in.ContactEmail)
	if in.Active != nil {
		b.Active = *in.Active
	}
}

func bankErr(err error, what string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound("bank not found with id: %s", what)
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Validation("bank with branch code %s already exists", what)
	default:
		return fmt.Errorf("bank %s: %w", what, err)
	}
}

func (s *BankService) Create(ctx context.Context, who identity.Identity, in BankInput) (models.Bank, error) {
	if err := authz.Authorize(authz.OpBankManage, who); err != nil {
		return models.Bank{}, err
	}
	if err := in.validate(); err != nil {
		return models.Bank{}, err
	}

	b := models.Bank{Active: true}
	in.apply(&b)
	b.CreatedAt = s.now()
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		if err := tx.Banks().Persist(ctx, &b); err != nil {
			return bankErr(err, b.BranchCode)
		}
		_, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
			EntityType: models.EntityBank, EntityID: b.ID, Action: models.ActionCreate, Detail: in,
		})
		return err
	})
	if err != nil {
		return models.Bank{}, err
	}
	s.log.Info("bank created", "tenant", who.TenantID, "id", b.ID, "branch_code", b.BranchCode, "actor", who.UserID)
	return b, nil
}

func (s *BankService) Update(ctx context.Context, who identity.Identity, id string, in BankInput) (models.Bank, error) {
	if err := authz.Authorize(authz.OpBankManage, who); err != nil {
		return models.Bank{}, err
	}
	if err := in.validate(); err != nil {
		return models.Bank{}, err
	}
	return s.mutate(ctx, who, id, models.ActionUpdate,
		func(b *models.Bank) { in.apply(b) },
		func(models.Bank) any { return in })
}

func (s *BankService) ToggleStatus(ctx context.Context, who identity.Identity, id string) (models.Bank, error) {
	if err := authz.Authorize(authz.OpBankManage, who); err != nil {
		return models.Bank{}, err
	}
	return s.mutate(ctx, who, id, models.ActionUpdate,
		func(b *models.Bank) { b.Active = !b.Active },
		func(b models.Bank) any { return map[string]bool{"active": b.Active} })
}

// Deactivate is the directory's delete: banks stay referenced by past
// transactions, so they are only switched off.
func (s *BankService) Deactivate(ctx context.Context, who identity.Identity, id string) (models.Bank, error) {
	if err := authz.Authorize(authz.OpBankManage, who); err != nil {
		return models.Bank{}, err
	}
	return s.mutate(ctx, who, id, models.ActionDelete,
		func(b *models.Bank) { b.Active = false },
		func(models.Bank) any { return nil })
}

func (s *BankService) mutate(ctx context.Context, who identity.Identity, id, action string, change func(*models.Bank), detail func(models.Bank) any) (models.Bank, error) {
	var out models.Bank
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		b, err := tx.Banks().FindByID(ctx, id)
		if err != nil {
			return bankErr(err, id)
		}
		change(&b)
		now := s.now()
		b.UpdatedAt = &now
		if err := tx.Banks().Update(ctx, b); err != nil {
			return bankErr(err, b.BranchCode)
		}
		if _, err := s.audit.Record(ctx, tx.AuditLogs(), who, audit.Event{
			EntityType: models.EntityBank, EntityID: b.ID, Action: action, Detail: detail(b),
		}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return models.Bank{}, err
	}
	s.log.Info("bank updated", "tenant", who.TenantID, "id", out.ID, "action", action, "active", out.Active, "actor", who.UserID)
	return out, nil
}

func (s *BankService) GetByID(ctx context.Context, who identity.Identity, id string) (models.Bank, error) {
	if err := authz.Authorize(authz.OpBankRead, who); err != nil {
		return models.Bank{}, err
	}
	var out models.Bank
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		b, err := tx.Banks().FindByID(ctx, id)
		if err != nil {
			return bankErr(err, id)
		}
		out = b
		return nil
	})
	return out, err
}

func (s *BankService) List(ctx context.Context, who identity.Identity) ([]models.Bank, error) {
	return s.list(ctx, who, func(ctx context.Context, r repo.Banks) ([]models.Bank, error) { return r.ListAll(ctx) })
}

func (s *BankService) ListActive(ctx context.Context, who identity.Identity) ([]models.Bank, error) {
	return s.list(ctx, who, func(ctx context.Context, r repo.Banks) ([]models.Bank, error) { return r.ListActive(ctx) })
}

func (s *BankService) list(ctx context.Context, who identity.Identity, q func(context.Context, repo.Banks) ([]models.Bank, error)) ([]models.Bank, error) {
	if err := authz.Authorize(authz.OpBankRead, who); err != nil {
		return nil, err
	}
	var out []models.Bank
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = q(ctx, tx.Banks())
		return err
	})
	return orEmpty(out), err
}
