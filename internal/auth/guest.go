package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	authmw "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/rbac"
)

const guestCookie = "examsim_guest_id"

// GuestLoginHandler issues a student token for an anonymous visitor,
// reusing the guest identity remembered in a cookie when there is one.
func GuestLoginHandler(a *authmw.AuthService, db *sql.DB, enabled bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
		Role        string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, authmw.PrefixGuest) {
			var username, role string
			err := db.QueryRowContext(r.Context(), `SELECT username, role FROM users WHERE id=$1`, c.Value).Scan(&username, &role)
			if err == nil && role == rbac.RoleStudent {
				tok, err := a.IssueJWT(c.Value, role)
				if err != nil {
					http.Error(w, "issue token", http.StatusInternalServerError)
					return
				}
				setGuestCookie(w, c.Value)
				_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username, Role: role})
				return
			}
		}

		sfx := strconv.FormatInt(time.Now().UnixNano(), 36)
		userID := authmw.PrefixGuest + sfx
		username := "guest-" + sfx[len(sfx)-6:]

		_, err := db.ExecContext(r.Context(), `INSERT INTO users (id, username, pass_hash, role, created_at)
		                VALUES ($1,$2,'',$3,$4)`, userID, username, rbac.RoleStudent, time.Now().Unix())
		if err != nil {
			http.Error(w, "create guest", http.StatusInternalServerError)
			return
		}

		tok, err := a.IssueJWT(userID, rbac.RoleStudent)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		setGuestCookie(w, userID)
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username, Role: rbac.RoleStudent})
	}
}

func setGuestCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}
