package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPendingApproval TransactionStatus = "PENDING_APPROVAL"
	StatusApproved        TransactionStatus = "APPROVED"
	StatusRejected        TransactionStatus = "REJECTED"

	// reserved for downstream settlement, never produced here
	StatusSubmitted TransactionStatus = "SUBMITTED"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

var allStatuses = []TransactionStatus{
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusSubmitted,
	StatusCompleted,
	StatusFailed,
}

func AllStatuses() []TransactionStatus {
	return append([]TransactionStatus(nil), allStatuses...)
}

// ParseTransactionStatus matches a status name case-insensitively.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range allStatuses {
		if string(st) == want {
			return st, true
		}
	}
	return "", false
}

type Money struct {
	Currency     string           `json:"currency"`
	Amount       decimal.Decimal  `json:"amount"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
}

type Transaction struct {
	ID              string            `json:"id"`
	TenantID        string            `json:"tenant_id"`
	AccountName     string            `json:"account_name"`
	AccountNumber   string            `json:"account_number"`
	BankID          string            `json:"bank_id"`
	BankBranchCode  string            `json:"bank_branch_code"`
	Money           Money             `json:"money"`
	Status          TransactionStatus `json:"status"`
	BatchID         *string           `json:"batch_id,omitempty"`
	CreatedBy       string            `json:"created_by"`
	ApprovedBy      *string           `json:"approved_by,omitempty"`
	ApprovalNotes   *string           `json:"approval_notes,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectedBy      *string           `json:"rejected_by,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`
}

func (t Transaction) InBatch(batchID string) bool {
	return t.BatchID != nil && *t.BatchID == batchID
}
