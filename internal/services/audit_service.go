package services

import (
	"context"

	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/authz"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/models"
	repo "github.com/baharkarakas/paystream/internal/repository"
)

type AuditService struct{ store repo.Store }

func NewAuditService(store repo.Store) *AuditService { return &AuditService{store: store} }

// ChainReport is the outcome of re-deriving a tenant's audit hash chain.
type ChainReport struct {
	Entries  int  `json:"entries"`
	Valid    bool `json:"valid"`
	BrokenAt *int `json:"broken_at,omitempty"`
}

func (s *AuditService) List(ctx context.Context, who identity.Identity) ([]models.AuditLog, error) {
	if err := authz.Authorize(authz.OpAuditRead, who); err != nil {
		return nil, err
	}
	var out []models.AuditLog
	err := s.store.ForTenant(who.TenantID).WithTx(ctx, func(tx repo.Tx) error {
		var err error
		out, err = tx.AuditLogs().ListAll(ctx)
		return err
	})
	return orEmpty(out), err
}

func (s *AuditService) Verify(ctx context.Context, who identity.Identity) (ChainReport, error) {
	entries, err := s.List(ctx, who)
	if err != nil {
		return ChainReport{}, err
	}
	rep := ChainReport{Entries: len(entries), Valid: true}
	if i := audit.Verify(entries); i >= 0 {
		rep.Valid = false
		rep.BrokenAt = &i
	}
	return rep, nil
}
