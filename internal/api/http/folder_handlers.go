package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/bookmarks"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/rbac"
	"github.com/mind-engage/mindengage-examsim/internal/session"
)

// FolderHandlers serves /folders. Folders are always scoped to the caller.
type FolderHandlers struct {
	Folders  *bookmarks.Service
	Sessions *session.Service
}

func (h FolderHandlers) Mount(r chi.Router) {
	r.Use(rbac.Require("bookmark:manage"))
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Patch("/", h.rename)
		r.Delete("/", h.delete)
		r.Get("/bookmarks", h.bookmarks)
		r.Post("/bookmarks", h.add)
		r.Delete("/bookmarks/{qid}", h.remove)
		r.With(rbac.Require("session:create")).Post("/practice", h.practice)
	})
}

func (h FolderHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Folders.ListFolders(r.Context(), authmw.SubjectFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /folders  {"name":"..."}
func (h FolderHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	f, err := h.Folders.CreateFolder(r.Context(), authmw.SubjectFromContext(r.Context()), req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// PATCH /folders/{id}  {"name":"..."}
func (h FolderHandlers) rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	f, err := h.Folders.RenameFolder(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h FolderHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Folders.DeleteFolder(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h FolderHandlers) bookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Folders.List(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if list == nil {
		list = []bookmarks.Bookmark{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /folders/{id}/bookmarks  {"question_id":"..."}
func (h FolderHandlers) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"question_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Folders.Add(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), req.QuestionID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h FolderHandlers) remove(w http.ResponseWriter, r *http.Request) {
	err := h.Folders.Remove(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "qid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /folders/{id}/practice  {"shuffle_questions":true,"shuffle_choices":true}
func (h FolderHandlers) practice(w http.ResponseWriter, r *http.Request) {
	var cfg exam.Config
	if r.ContentLength != 0 && !decode(w, r, &cfg) {
		return
	}
	user := authmw.SubjectFromContext(r.Context())
	qs, err := h.Folders.Questions(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	s, err := h.Sessions.StartPractice(r.Context(), user, qs, cfg)
	if err != nil {
		writeErr(w, err)
		return
	}
	view(w, http.StatusCreated, s)
}
