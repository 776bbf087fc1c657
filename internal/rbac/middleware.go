package rbac

import (
	"context"
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Can reports whether the role in ctx holds perm under the default policy.
func Can(ctx context.Context, perm string) bool {
	return defaultChecker.Has(RoleFromContext(ctx), perm)
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Has(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Any(role, perms...) })
}

// guard answers 401 when no role is attached and 403 when allowed says no.
func guard(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			switch {
			case role == "":
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			case !allowed(role):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
