package services

import (
	"strings"
	"time"

	"github.com/baharkarakas/paystream/internal/apperr"
	"github.com/baharkarakas/paystream/internal/models"
)

// Transition rules of the approval workflow. PENDING_APPROVAL is the only
// state with outgoing edges; APPROVED and REJECTED are final.

func checkApprove(t models.Transaction, actorID string) error {
	if t.Status != models.StatusPendingApproval {
		return apperr.Validation("only pending transactions can be approved")
	}
	// maker-checker: whoever created it can never approve it
	if actorID == t.CreatedBy {
		return apperr.Forbidden("cannot approve a transaction you created")
	}
	return nil
}

// checkReject deliberately has no creator check: makers may withdraw their
// own requests by rejecting them.
func checkReject(t models.Transaction) error {
	if t.Status != models.StatusPendingApproval {
		return apperr.Validation("only pending transactions can be rejected")
	}
	return nil
}

func requireReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.WithDetails(
			apperr.Validation("rejection reason is required"),
			[]map[string]string{{"field": "reason", "msg": "required"}},
		)
	}
	return nil
}

func applyApprove(t *models.Transaction, actorID, notes string, at time.Time) {
	t.Status = models.StatusApproved
	t.ApprovedBy = &actorID
	t.ApprovedAt = &at
	if notes != "" {
		t.ApprovalNotes = &notes
	}
	t.UpdatedAt = &at
}

func applyReject(t *models.Transaction, actorID, reason string, at time.Time) {
	reason = strings.TrimSpace(reason)
	t.Status = models.StatusRejected
	t.RejectedBy = &actorID
	t.RejectedAt = &at
	t.RejectionReason = &reason
	t.UpdatedAt = &at
}
