// Package identity carries the per-request caller: tenant, acting user and
// the roles granted for this call.
package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
)

type Role string

const (
	RoleCreator  Role = "TRANSACTION_CREATOR"
	RoleApprover Role = "TRANSACTION_APPROVER"
	RoleViewer   Role = "TRANSACTION_VIEWER"
	RoleAdmin    Role = "ADMIN"
)

var (
	ErrMissingTenant = errors.New("missing tenant id")
	ErrMissingUser   = errors.New("missing user id")
)

// Identity is immutable once built; the role set is copied in and never
// handed out by reference.
type Identity struct {
	TenantID string
	UserID   string
	Email    string
	roles    map[Role]struct{}
}

func New(tenantID, userID, email string, roles ...Role) Identity {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		r = Role(strings.TrimSpace(string(r)))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return Identity{
		TenantID: strings.TrimSpace(tenantID),
		UserID:   strings.TrimSpace(userID),
		Email:    strings.TrimSpace(email),
		roles:    set,
	}
}

func (i Identity) HasRole(r Role) bool {
	_, ok := i.roles[r]
	return ok
}

// Roles returns the granted roles sorted by name.
func (i Identity) Roles() []Role {
	out := make([]Role, 0, len(i.roles))
	for r := range i.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

func (i Identity) Validate() error {
	if i.TenantID == "" {
		return ErrMissingTenant
	}
	if i.UserID == "" {
		return ErrMissingUser
	}
	return nil
}

// ParseRoles splits a comma separated role list, dropping blanks.
func ParseRoles(csv string) []Role {
	var out []Role
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, Role(p))
		}
	}
	return out
}

func RolesFromStrings(in []string) []Role {
	out := make([]Role, 0, len(in))
	for _, s := range in {
		out = append(out, Role(s))
	}
	return out
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
