package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/rbac"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`               // defaults to student
	Password string `json:"password,omitempty"` // plaintext, hashed on import
}

func validRole(role string) bool { return role == rbac.RoleStudent || role == rbac.RoleAdmin }

// POST /users/me/password  {"old_password":"...","new_password":"..."}
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authmw.IsGuest(r.Context()) {
			http.Error(w, "guest accounts have no password", http.StatusForbidden)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if len(req.NewPassword) < 8 {
			http.Error(w, "new password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT pass_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if storedHash == "" || bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET pass_hash=$1 WHERE id=$2`, string(hash), userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// userActivity is a users row with its session history rolled up.
type userActivity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Guest     bool   `json:"guest"`
	Sessions  int    `json:"sessions"`
	Submitted int    `json:"submitted"`
	LastStart int64  `json:"last_started_at,omitempty"` // unix seconds
}

// GET /users?role=student&limit=50&offset=0
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	const q = `
SELECT u.id, u.username, u.role,
       COUNT(s.id),
       COALESCE(SUM(CASE WHEN s.status <> 'in_progress' THEN 1 ELSE 0 END), 0),
       COALESCE(MAX(s.started_at), 0)
FROM users u
LEFT JOIN sessions s ON s.user_id = u.id
WHERE ($1 = '' OR u.role = $1)
GROUP BY u.id, u.username, u.role
ORDER BY u.username
LIMIT $2 OFFSET $3`
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		limit := queryInt(qs.Get("limit"), 50, 500)
		offset := queryInt(qs.Get("offset"), 0, -1)

		rows, err := db.QueryContext(r.Context(), q, qs.Get("role"), limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userActivity{}
		for rows.Next() {
			var u userActivity
			var lastNano int64
			if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.Sessions, &u.Submitted, &lastNano); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			u.Guest = strings.HasPrefix(u.ID, authmw.PrefixGuest)
			if lastNano > 0 {
				u.LastStart = time.Unix(0, lastNano).Unix()
			}
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// queryInt parses a non-negative query value, falling back to def and
// clamping to max when max >= 0.
func queryInt(v string, def, max int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	if max >= 0 && n > max {
		return max
	}
	return n
}

// PATCH /users/{userID}/role  {"role":"admin"}
func UpdateUserRoleHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID") // id or username
		var req struct {
			Role string `json:"role"`
		}
		if !decode(w, r, &req) {
			return
		}
		role := strings.ToLower(strings.TrimSpace(req.Role))
		if !validRole(role) {
			http.Error(w, "invalid role", http.StatusBadRequest)
			return
		}

		var id, curRole string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE id=$1 OR username=$1`, target).Scan(&id, &curRole)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET role=$1 WHERE id=$2`, role, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /users/bulk  JSON array, or CSV with id,username,role[,password] columns
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			rows []userRow
			err  error
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
			rows, err = parseCSV(r.Body)
		} else {
			err = json.NewDecoder(r.Body).Decode(&rows)
		}
		if err != nil {
			http.Error(w, "bad input: "+err.Error(), http.StatusBadRequest)
			return
		}
		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

func parseCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"username", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			Username: rec[idx["username"]],
			Role:     strings.ToLower(rec[idx["role"]]),
		}
		if i, ok := idx["id"]; ok {
			row.ID = rec[i]
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, u := range rows {
		if u.Role == "" {
			u.Role = rbac.RoleStudent
		}
		if !validRole(u.Role) {
			return inserted, updated, errors.New("invalid role: " + u.Role)
		}
		var phash string
		if u.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var id string
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 OR username=$2`, u.ID, u.Username).Scan(&id)
		switch {
		case err == nil:
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, pass_hash=$3 WHERE id=$4`,
					u.Username, u.Role, phash, id)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`, u.Username, u.Role, id)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + u.Username)
			}
			if u.ID == "" {
				u.ID = authmw.PrefixUser + uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, pass_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
				u.ID, u.Username, phash, u.Role, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return
}
