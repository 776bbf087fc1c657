package bookmarks

import "time"

const DefaultFolderName = "Bookmarks"

type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
}

// Bookmark ties a bank question to a folder. QuestionID is always the
// canonical id, never a repeat id.
type Bookmark struct {
	FolderID   string    `json:"folder_id"`
	QuestionID string    `json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}
