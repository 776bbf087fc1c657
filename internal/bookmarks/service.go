package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
)

var (
	ErrForbidden       = errors.New("folder belongs to another user")
	ErrDefaultFolder   = errors.New("the default folder cannot be deleted")
	ErrUnknownQuestion = errors.New("question not in bank")
	ErrBadName         = errors.New("folder name required")
)

// Lookup resolves question ids against the loaded bank.
type Lookup interface {
	Lookup(id string) (bank.Question, bool)
}

type Service struct {
	store Store
	bank  Lookup
	now   func() time.Time

	mu sync.Mutex // guards default folder creation
}

func NewService(store Store, lookup Lookup) *Service {
	return &Service{store: store, bank: lookup, now: time.Now}
}

// EnsureDefault returns the user's default folder, creating it on first use.
func (s *Service) EnsureDefault(ctx context.Context, userID string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.store.ListFolders(ctx, userID)
	if err != nil {
		return Folder{}, err
	}
	for _, f := range list {
		if f.IsDefault {
			return f, nil
		}
	}
	f := Folder{ID: uuid.NewString(), UserID: userID, Name: DefaultFolderName, IsDefault: true, CreatedAt: s.now()}
	if err := s.store.CreateFolder(ctx, f); err != nil {
		return Folder{}, err
	}
	return f, nil
}

// ListFolders lists the user's folders, default first.
func (s *Service) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	if _, err := s.EnsureDefault(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListFolders(ctx, userID)
}

func (s *Service) CreateFolder(ctx context.Context, userID, name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, ErrBadName
	}
	f := Folder{ID: uuid.NewString(), UserID: userID, Name: name, CreatedAt: s.now()}
	if err := s.store.CreateFolder(ctx, f); err != nil {
		return Folder{}, err
	}
	return f, nil
}

func (s *Service) RenameFolder(ctx context.Context, userID, folderID, name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, ErrBadName
	}
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return Folder{}, err
	}
	if err := s.store.RenameFolder(ctx, folderID, name); err != nil {
		return Folder{}, err
	}
	return s.store.GetFolder(ctx, folderID)
}

func (s *Service) DeleteFolder(ctx context.Context, userID, folderID string) error {
	f, err := s.owned(ctx, userID, folderID)
	if err != nil {
		return err
	}
	if f.IsDefault {
		return ErrDefaultFolder
	}
	return s.store.DeleteFolder(ctx, folderID)
}

// Add bookmarks a question. Repeat ids from padded exams are stored under
// the id of the bank question they repeat.
func (s *Service) Add(ctx context.Context, userID, folderID, questionID string) (Bookmark, error) {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return Bookmark{}, err
	}
	q, ok := s.bank.Lookup(questionID)
	if !ok {
		return Bookmark{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	b := Bookmark{FolderID: folderID, QuestionID: bank.CanonicalID(q.ID), CreatedAt: s.now()}
	if err := s.store.AddBookmark(ctx, b); err != nil {
		return Bookmark{}, err
	}
	return b, nil
}

func (s *Service) Remove(ctx context.Context, userID, folderID, questionID string) error {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return err
	}
	return s.store.RemoveBookmark(ctx, folderID, bank.CanonicalID(questionID))
}

func (s *Service) List(ctx context.Context, userID, folderID string) ([]Bookmark, error) {
	if _, err := s.owned(ctx, userID, folderID); err != nil {
		return nil, err
	}
	return s.store.ListBookmarks(ctx, folderID)
}

// Questions returns the bank questions bookmarked in a folder, in the order
// they were added. Bookmarks whose question left the bank are skipped.
func (s *Service) Questions(ctx context.Context, userID, folderID string) ([]bank.Question, error) {
	list, err := s.List(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	out := make([]bank.Question, 0, len(list))
	for _, b := range list {
		if q, ok := s.bank.Lookup(b.QuestionID); ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, userID, folderID string) (Folder, error) {
	f, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return Folder{}, err
	}
	if f.UserID != userID {
		return Folder{}, ErrForbidden
	}
	return f, nil
}
