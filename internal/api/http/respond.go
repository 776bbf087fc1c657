package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-examsim/internal/bookmarks"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
	"github.com/mind-engage/mindengage-examsim/internal/session"
	"github.com/mind-engage/mindengage-examsim/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, bookmarks.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrForbidden), errors.Is(err, bookmarks.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrClosed), errors.Is(err, bookmarks.ErrDuplicate), errors.Is(err, bookmarks.ErrDefaultFolder):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNoQuestions):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrNoDeferred),
		errors.Is(err, grading.ErrBadResponse),
		errors.Is(err, exam.ErrNoQuestionType), errors.Is(err, exam.ErrUnknownQuestionType),
		errors.Is(err, exam.ErrInvalidConfig),
		errors.Is(err, bookmarks.ErrUnknownQuestion), errors.Is(err, bookmarks.ErrBadName):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}
