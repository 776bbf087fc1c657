package bookmarks

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("question already in folder")
)

type Store interface {
	CreateFolder(ctx context.Context, f Folder) error
	GetFolder(ctx context.Context, id string) (Folder, error)
	ListFolders(ctx context.Context, userID string) ([]Folder, error)
	RenameFolder(ctx context.Context, id, name string) error
	DeleteFolder(ctx context.Context, id string) error

	AddBookmark(ctx context.Context, b Bookmark) error
	RemoveBookmark(ctx context.Context, folderID, questionID string) error
	ListBookmarks(ctx context.Context, folderID string) ([]Bookmark, error)
}

type memoryStore struct {
	mu        sync.RWMutex
	folders   map[string]Folder
	bookmarks map[string][]Bookmark // by folder id, in insertion order
}

func NewInMemoryStore() Store {
	return &memoryStore{folders: map[string]Folder{}, bookmarks: map[string][]Bookmark{}}
}

func (m *memoryStore) CreateFolder(_ context.Context, f Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[f.ID] = f
	return nil
}

func (m *memoryStore) GetFolder(_ context.Context, id string) (Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.folders[id]
	if !ok {
		return Folder{}, ErrNotFound
	}
	f.Count = len(m.bookmarks[id])
	return f, nil
}

func (m *memoryStore) ListFolders(_ context.Context, userID string) ([]Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Folder
	for _, f := range m.folders {
		if f.UserID == userID {
			f.Count = len(m.bookmarks[f.ID])
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memoryStore) RenameFolder(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return ErrNotFound
	}
	f.Name = name
	m.folders[id] = f
	return nil
}

func (m *memoryStore) DeleteFolder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[id]; !ok {
		return ErrNotFound
	}
	delete(m.folders, id)
	delete(m.bookmarks, id)
	return nil
}

func (m *memoryStore) AddBookmark(_ context.Context, b Bookmark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[b.FolderID]; !ok {
		return ErrNotFound
	}
	for _, x := range m.bookmarks[b.FolderID] {
		if x.QuestionID == b.QuestionID {
			return ErrDuplicate
		}
	}
	m.bookmarks[b.FolderID] = append(m.bookmarks[b.FolderID], b)
	return nil
}

func (m *memoryStore) RemoveBookmark(_ context.Context, folderID, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.bookmarks[folderID]
	for i, x := range list {
		if x.QuestionID == questionID {
			m.bookmarks[folderID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) ListBookmarks(_ context.Context, folderID string) ([]Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Bookmark(nil), m.bookmarks[folderID]...), nil
}
