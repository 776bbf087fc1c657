package rbac

import (
	"context"
	"strings"
)

// Checker answers permission queries against a role policy. Grants are
// exact ("session:create"), namespace wildcards ("bookmark:*") or "*".
type Checker struct {
	grants map[string][]string
}

func NewChecker(policy map[string][]string) *Checker {
	if policy == nil {
		policy = RolePermissions
	}
	return &Checker{grants: policy}
}

func (c *Checker) Has(role, perm string) bool {
	for _, g := range c.grants[role] {
		if grants(g, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func grants(grant, perm string) bool {
	if grant == "*" || grant == perm {
		return true
	}
	ns, ok := strings.CutSuffix(grant, ":*")
	return ok && strings.HasPrefix(perm, ns+":")
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
