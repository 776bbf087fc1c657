package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-examsim/internal/rbac"
)

// AttachRoleFromDB replaces the token role with the one stored for the
// subject, so demotions take effect before the token expires. The
// configured admin has no users row and keeps its claim.
func AttachRoleFromDB(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if strings.HasPrefix(sub, PrefixAdmin) && rbac.RoleFromContext(ctx) == rbac.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			var role string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, sub).Scan(&role)
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "unknown user", http.StatusUnauthorized)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
