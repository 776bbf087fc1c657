package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-examsim/internal/grading"
)

// SQLStore keeps each session as a JSON payload with its lookup columns
// alongside. Works with both the sqlite and pgx drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var deadline, submitted sql.NullInt64
	if !sess.Deadline.IsZero() {
		deadline = sql.NullInt64{Int64: sess.Deadline.Unix(), Valid: true}
	}
	if sess.SubmittedAt != nil {
		submitted = sql.NullInt64{Int64: sess.SubmittedAt.Unix(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id,user_id,kind,status,payload_json,started_at,deadline,submitted_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, payload_json=EXCLUDED.payload_json,
		   deadline=EXCLUDED.deadline, submitted_at=EXCLUDED.submitted_at, updated_at=EXCLUDED.updated_at`,
		sess.ID, sess.UserID, string(sess.Kind), string(sess.Status), string(payload),
		sess.StartedAt.UnixNano(), deadline, submitted, time.Now().Unix())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload_json FROM sessions WHERE id=$1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return decode(payload)
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload_json FROM sessions WHERE user_id=$1 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		sess, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func decode(payload string) (Session, error) {
	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return Session{}, err
	}
	if sess.Answers == nil {
		sess.Answers = map[int]grading.Response{}
	}
	if sess.Deferred == nil {
		sess.Deferred = map[int]bool{}
	}
	return sess, nil
}
