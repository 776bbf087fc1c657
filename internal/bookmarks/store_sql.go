package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateFolder(ctx context.Context, f Folder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmark_folders (id,user_id,name,is_default,created_at) VALUES ($1,$2,$3,$4,$5)`,
		f.ID, f.UserID, f.Name, boolInt(f.IsDefault), f.CreatedAt.UnixNano())
	return err
}

const folderCols = `f.id, f.user_id, f.name, f.is_default, f.created_at,
	(SELECT COUNT(*) FROM bookmarks b WHERE b.folder_id = f.id)`

func (s *SQLStore) GetFolder(ctx context.Context, id string) (Folder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+folderCols+` FROM bookmark_folders f WHERE f.id=$1`, id)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Folder{}, ErrNotFound
	}
	return f, err
}

func (s *SQLStore) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+folderCols+` FROM bookmark_folders f WHERE f.user_id=$1
		 ORDER BY f.is_default DESC, f.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) RenameFolder(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bookmark_folders SET name=$1 WHERE id=$2`, name, id)
	return affected(res, err)
}

func (s *SQLStore) DeleteFolder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE folder_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookmark_folders WHERE id=$1`, id)
	if err := affected(res, err); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) AddBookmark(ctx context.Context, b Bookmark) error {
	if _, err := s.GetFolder(ctx, b.FolderID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (folder_id,question_id,created_at) VALUES ($1,$2,$3)`,
		b.FolderID, b.QuestionID, b.CreatedAt.UnixNano())
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLStore) RemoveBookmark(ctx context.Context, folderID, questionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE folder_id=$1 AND question_id=$2`, folderID, questionID)
	return affected(res, err)
}

func (s *SQLStore) ListBookmarks(ctx context.Context, folderID string) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT folder_id, question_id, created_at FROM bookmarks WHERE folder_id=$1 ORDER BY created_at`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bookmark
	for rows.Next() {
		var b Bookmark
		var created int64
		if err := rows.Scan(&b.FolderID, &b.QuestionID, &created); err != nil {
			return nil, err
		}
		b.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanFolder(sc scanner) (Folder, error) {
	var f Folder
	var isDefault int
	var created int64
	if err := sc.Scan(&f.ID, &f.UserID, &f.Name, &isDefault, &created, &f.Count); err != nil {
		return Folder{}, err
	}
	f.IsDefault = isDefault != 0
	f.CreatedAt = time.Unix(0, created).UTC()
	return f, nil
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}
