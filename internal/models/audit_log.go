package models

import "time"

const (
	EntityTransaction      = "Transaction"
	EntityTransactionBatch = "TransactionBatch"
	EntityBank             = "Bank"
)

const (
	ActionCreate  = "CREATE"
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
)

// AuditLog is append-only. Hash links each entry to its predecessor within
// the tenant.
type AuditLog struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   *string   `json:"entity_id"`
	Action     string    `json:"action"`
	UserID     string    `json:"user_id"`
	Details    string    `json:"details,omitempty"`
	PrevHash   string    `json:"prev_hash,omitempty"`
	Hash       string    `json:"hash"`
	CreatedAt  time.Time `json:"created_at"`
}
