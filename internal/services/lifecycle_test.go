package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paystream/internal/apperr"
	"github.com/baharkarakas/paystream/internal/models"
)

func pending(createdBy string) models.Transaction {
	return models.Transaction{ID: "tx-1", Status: models.StatusPendingApproval, CreatedBy: createdBy}
}

func TestCheckApprove(t *testing.T) {
	assert.NoError(t, checkApprove(pending("alice"), "bob"))
	assert.ErrorIs(t, checkApprove(pending("alice"), "alice"), apperr.ErrForbidden)

	for _, st := range []models.TransactionStatus{models.StatusApproved, models.StatusRejected, models.StatusCompleted} {
		tx := pending("alice")
		tx.Status = st
		assert.ErrorIs(t, checkApprove(tx, "bob"), apperr.ErrValidation, "status %s", st)
	}
}

func TestCheckApprovePrefersStateError(t *testing.T) {
	tx := pending("alice")
	tx.Status = models.StatusApproved
	assert.ErrorIs(t, checkApprove(tx, "alice"), apperr.ErrValidation)
}

func TestCheckRejectAllowsCreator(t *testing.T) {
	assert.NoError(t, checkReject(pending("alice")))

	tx := pending("alice")
	tx.Status = models.StatusRejected
	assert.ErrorIs(t, checkReject(tx), apperr.ErrValidation)
}

func TestRequireReason(t *testing.T) {
	assert.ErrorIs(t, requireReason(""), apperr.ErrValidation)
	assert.ErrorIs(t, requireReason("   "), apperr.ErrValidation)
	assert.NoError(t, requireReason("duplicate payment"))
}

func TestApplyApproveSetsApproverFieldsOnly(t *testing.T) {
	at := time.Date(2025, 3, 22, 9, 0, 0, 0, time.UTC)
	tx := pending("alice")
	applyApprove(&tx, "bob", "looks good", at)

	assert.Equal(t, models.StatusApproved, tx.Status)
	require.NotNil(t, tx.ApprovedBy)
	assert.Equal(t, "bob", *tx.ApprovedBy)
	assert.Equal(t, at, *tx.ApprovedAt)
	assert.Equal(t, "looks good", *tx.ApprovalNotes)
	assert.Nil(t, tx.RejectedBy)
	assert.Nil(t, tx.RejectedAt)
	assert.Nil(t, tx.RejectionReason)
}

func TestApplyApproveWithoutNotes(t *testing.T) {
	tx := pending("alice")
	applyApprove(&tx, "bob", "", time.Now())
	assert.Nil(t, tx.ApprovalNotes)
}

func TestApplyRejectSetsRejecterFieldsOnly(t *testing.T) {
	at := time.Date(2025, 3, 22, 9, 0, 0, 0, time.UTC)
	tx := pending("alice")
	applyReject(&tx, "alice", "  wrong account ", at)

	assert.Equal(t, models.StatusRejected, tx.Status)
	assert.Equal(t, "alice", *tx.RejectedBy)
	assert.Equal(t, "wrong account", *tx.RejectionReason)
	assert.Equal(t, at, *tx.RejectedAt)
	assert.Nil(t, tx.ApprovedBy)
	assert.Nil(t, tx.ApprovedAt)
}
