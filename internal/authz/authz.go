// Package authz maps every service operation to the roles it needs.
package authz

import (
	"github.com/baharkarakas/paystream/internal/apperr"
	"github.com/baharkarakas/paystream/internal/identity"
)

type Operation string

const (
	OpCreate       Operation = "transaction.create"
	OpCreateBulk   Operation = "transaction.create_bulk"
	OpApprove      Operation = "transaction.approve"
	OpReject       Operation = "transaction.reject"
	OpBatchApprove Operation = "transaction.batch_approve"
	OpBatchReject  Operation = "transaction.batch_reject"
	OpRead         Operation = "transaction.read"
	OpBankRead     Operation = "bank.read"
	OpBankManage   Operation = "bank.manage"
	OpAuditRead    Operation = "audit.read"
)

type Match int

const (
	AnyOf Match = iota
	AllOf
)

type Requirement struct {
	Roles []identity.Role
	Match Match
}

var readers = []identity.Role{identity.RoleCreator, identity.RoleApprover, identity.RoleViewer}

var rules = map[Operation]Requirement{
	OpCreate:       {Roles: []identity.Role{identity.RoleCreator}},
	OpCreateBulk:   {Roles: []identity.Role{identity.RoleCreator}},
	OpApprove:      {Roles: []identity.Role{identity.RoleApprover}},
	OpReject:       {Roles: []identity.Role{identity.RoleApprover}},
	OpBatchApprove: {Roles: []identity.Role{identity.RoleApprover}},
	OpBatchReject:  {Roles: []identity.Role{identity.RoleApprover}},
	OpRead:         {Roles: readers},
	OpBankRead:     {Roles: append(append([]identity.Role{}, readers...), identity.RoleAdmin)},
	OpBankManage:   {Roles: []identity.Role{identity.RoleAdmin}},
	OpAuditRead:    {Roles: []identity.Role{identity.RoleAdmin}},
}

// RequirementFor returns the declared requirement; unknown operations have none.
func RequirementFor(op Operation) (Requirement, bool) {
	r, ok := rules[op]
	return r, ok
}

// Satisfied evaluates a requirement against the caller's roles. An empty
// role list never passes.
func (r Requirement) Satisfied(id identity.Identity) bool {
	if len(r.Roles) == 0 {
		return false
	}
	switch r.Match {
	case AllOf:
		for _, role := range r.Roles {
			if !id.HasRole(role) {
				return false
			}
		}
		return true
	default:
		for _, role := range r.Roles {
			if id.HasRole(role) {
				return true
			}
		}
		return false
	}
}

// Allowed reports whether id may perform op. Undeclared operations are denied.
func Allowed(op Operation, id identity.Identity) bool {
	r, ok := rules[op]
	if !ok {
		return false
	}
	return r.Satisfied(id)
}

// Authorize is Allowed as an error: nil or a Forbidden apperr.
func Authorize(op Operation, id identity.Identity) error {
	if Allowed(op, id) {
		return nil
	}
	return apperr.Forbidden("you don't have the required permissions to perform %s", op)
}
