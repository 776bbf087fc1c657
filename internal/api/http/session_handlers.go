package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
	"github.com/mind-engage/mindengage-examsim/internal/rbac"
	"github.com/mind-engage/mindengage-examsim/internal/session"
)

// owner scopes session lookups to the caller unless the role may see all.
func owner(ctx context.Context) string {
	if rbac.Can(ctx, "session:view-all") {
		return ""
	}
	return authmw.SubjectFromContext(ctx)
}

func view(w http.ResponseWriter, status int, s session.Session) {
	writeJSON(w, status, s.View(time.Now()))
}

// SessionHandlers serves /sessions.
type SessionHandlers struct {
	Sessions *session.Service
}

func (h SessionHandlers) Mount(r chi.Router) {
	r.With(rbac.Require("session:create")).Post("/", h.start)
	r.With(rbac.RequireAny("session:view-own", "session:view-all")).Get("/", h.list)
	r.Route("/{id}", func(r chi.Router) {
		r.With(rbac.RequireAny("session:view-own", "session:view-all")).Get("/", h.get)
		r.With(rbac.Require("session:delete-own")).Delete("/", h.delete)
		r.Group(func(r chi.Router) {
			r.Use(rbac.Require("session:update-own"))
			r.Post("/answers", h.answer)
			r.Post("/defer", h.toggleDefer)
			r.Post("/navigate", h.navigate)
			r.Post("/submit", h.submit)
		})
	})
}

// POST /sessions  exam.Config
func (h SessionHandlers) start(w http.ResponseWriter, r *http.Request) {
	var cfg exam.Config
	if !decode(w, r, &cfg) {
		return
	}
	s, err := h.Sessions.Start(r.Context(), authmw.SubjectFromContext(r.Context()), cfg)
	if err != nil {
		writeErr(w, err)
		return
	}
	view(w, http.StatusCreated, s)
}

func (h SessionHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sessions.List(r.Context(), authmw.SubjectFromContext(r.Context()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h SessionHandlers) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Get(r.Context(), owner(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	view(w, http.StatusOK, s)
}

func (h SessionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.Context(), owner(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /sessions/{id}/answers  {"question_number":3,"choice":1} or {"question_number":3,"text":"..."}
func (h SessionHandlers) answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionNumber int `json:"question_number"`
		grading.Response
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Sessions.Answer(r.Context(), owner(r.Context()), chi.URLParam(r, "id"), req.QuestionNumber, req.Response)
	h.reply(w, s, err)
}

// POST /sessions/{id}/defer  {"question_number":3}
func (h SessionHandlers) toggleDefer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionNumber int `json:"question_number"`
	}
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Sessions.ToggleDefer(r.Context(), owner(r.Context()), chi.URLParam(r, "id"), req.QuestionNumber)
	h.reply(w, s, err)
}

// POST /sessions/{id}/navigate  {"question_number":7} or {"direction":"next|prev|next_deferred"}
func (h SessionHandlers) navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionNumber int    `json:"question_number"`
		Direction      string `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	ctx, who, id := r.Context(), owner(r.Context()), chi.URLParam(r, "id")
	var (
		s   session.Session
		err error
	)
	switch req.Direction {
	case "":
		s, err = h.Sessions.Navigate(ctx, who, id, req.QuestionNumber)
	case "next":
		s, err = h.Sessions.Next(ctx, who, id)
	case "prev":
		s, err = h.Sessions.Prev(ctx, who, id)
	case "next_deferred":
		s, err = h.Sessions.NextDeferred(ctx, who, id)
	default:
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return
	}
	h.reply(w, s, err)
}

func (h SessionHandlers) submit(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Submit(r.Context(), owner(r.Context()), chi.URLParam(r, "id"))
	h.reply(w, s, err)
}

// reply sends the session state, or the error. A session that closed on
// its deadline is still returned so the client can show the result.
func (h SessionHandlers) reply(w http.ResponseWriter, s session.Session, err error) {
	if err != nil {
		if s.ID != "" && s.Status == session.StatusExpired {
			view(w, http.StatusConflict, s)
			return
		}
		writeErr(w, err)
		return
	}
	view(w, http.StatusOK, s)
}
