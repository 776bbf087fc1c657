package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
	"github.com/mind-engage/mindengage-examsim/internal/metrics"
	syncx "github.com/mind-engage/mindengage-examsim/internal/sync"
)

const DefaultTimeLimit = 65 * time.Minute

var (
	ErrForbidden   = errors.New("session belongs to another user")
	ErrClosed      = errors.New("session already submitted")
	ErrNoQuestions = errors.New("no questions available for this configuration")
	ErrOutOfRange  = errors.New("question number out of range")
	ErrNoDeferred  = errors.New("no deferred questions")
)

type Service struct {
	store     Store
	gen       *exam.Generator
	grader    grading.Grader
	events    syncx.Appender
	log       *zap.Logger
	timeLimit time.Duration
	now       func() time.Time

	mu sync.Mutex // serializes read-modify-write of a session
}

type Option func(*Service)

func WithEvents(a syncx.Appender) Option    { return func(s *Service) { s.events = a } }
func WithLogger(l *zap.Logger) Option       { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithTimeLimit(d time.Duration) Option  { return func(s *Service) { s.timeLimit = d } }
func WithGrader(g grading.Grader) Option    { return func(s *Service) { s.grader = g } }

func NewService(store Store, gen *exam.Generator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		gen:       gen,
		grader:    grading.NewDefaultGrader(),
		events:    syncx.Discard{},
		log:       zap.NewNop(),
		timeLimit: DefaultTimeLimit,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start generates a fresh timed exam for userID.
func (s *Service) Start(ctx context.Context, userID string, cfg exam.Config) (Session, error) {
	ex, err := s.gen.Generate(cfg)
	if err != nil {
		return Session{}, err
	}
	mode := string(exam.ModeSectioned)
	if cfg.SingleType() {
		mode = string(exam.ModeSingle)
	}
	metrics.ExamsGenerated.WithLabelValues(string(KindExam), mode).Inc()
	for _, sf := range ex.Shortfalls {
		metrics.QuotaShortfalls.WithLabelValues(string(sf.Type)).Add(float64(sf.Want - sf.Got))
	}
	if len(ex.Questions) == 0 {
		return Session{}, ErrNoQuestions
	}
	return s.create(ctx, userID, KindExam, cfg, ex, s.timeLimit)
}

// StartPractice opens an untimed session over the given questions.
func (s *Service) StartPractice(ctx context.Context, userID string, questions []bank.Question, cfg exam.Config) (Session, error) {
	if len(questions) == 0 {
		return Session{}, ErrNoQuestions
	}
	ex := s.gen.Practice(questions, cfg)
	metrics.ExamsGenerated.WithLabelValues(string(KindPractice), "practice").Inc()
	return s.create(ctx, userID, KindPractice, cfg, ex, 0)
}

func (s *Service) create(ctx context.Context, userID string, kind Kind, cfg exam.Config, ex exam.Exam, limit time.Duration) (Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Config:    cfg,
		Exam:      ex,
		Answers:   map[int]grading.Response{},
		Deferred:  map[int]bool{},
		Status:    StatusInProgress,
		StartedAt: now,
	}
	if limit > 0 {
		sess.Deadline = now.Add(limit)
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return Session{}, err
	}
	s.emit(ctx, syncx.TypeSessionStarted, sess.ID, map[string]any{
		"user_id":   userID,
		"kind":      kind,
		"questions": len(ex.Questions),
		"config":    cfg,
	})
	s.log.Info("session started",
		zap.String("session_id", sess.ID), zap.String("user_id", userID),
		zap.String("kind", string(kind)), zap.Int("questions", len(ex.Questions)))
	return sess, nil
}

// Get loads a session, closing it first if its deadline has passed.
// An empty owner skips the ownership check.
func (s *Service) Get(ctx context.Context, owner, id string) (Session, error) {
	return s.update(ctx, owner, id, false, func(*Session) error { return nil })
}

func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for _, sess := range list {
		if sess.timedOut(s.now()) {
			if sess, err = s.Get(ctx, userID, sess.ID); err != nil {
				return nil, err
			}
		}
		out = append(out, sess.Summary())
	}
	return out, nil
}

// Answer records resp for question qnum. An empty response clears it.
func (s *Service) Answer(ctx context.Context, owner, id string, qnum int, resp grading.Response) (Session, error) {
	return s.update(ctx, owner, id, true, func(sess *Session) error {
		q, err := question(sess, qnum)
		if err != nil {
			return err
		}
		if resp.Empty() {
			delete(sess.Answers, qnum)
			return nil
		}
		if len(q.Choices) > 0 {
			if resp.Choice == nil || *resp.Choice < 0 || *resp.Choice >= len(q.Choices) {
				return fmt.Errorf("%w: choice for question %d", grading.ErrBadResponse, qnum)
			}
		}
		sess.Answers[qnum] = resp
		sess.CurrentIndex = qnum - 1
		return nil
	})
}

func (s *Service) ToggleDefer(ctx context.Context, owner, id string, qnum int) (Session, error) {
	return s.update(ctx, owner, id, true, func(sess *Session) error {
		if _, err := question(sess, qnum); err != nil {
			return err
		}
		if sess.Deferred[qnum] {
			delete(sess.Deferred, qnum)
		} else {
			sess.Deferred[qnum] = true
		}
		return nil
	})
}

// Navigate moves to question qnum.
func (s *Service) Navigate(ctx context.Context, owner, id string, qnum int) (Session, error) {
	return s.update(ctx, owner, id, true, func(sess *Session) error {
		if _, err := question(sess, qnum); err != nil {
			return err
		}
		sess.CurrentIndex = qnum - 1
		return nil
	})
}

// Next and Prev step through the exam, stopping at either end.
func (s *Service) Next(ctx context.Context, owner, id string) (Session, error) {
	return s.step(ctx, owner, id, 1)
}

func (s *Service) Prev(ctx context.Context, owner, id string) (Session, error) {
	return s.step(ctx, owner, id, -1)
}

func (s *Service) step(ctx context.Context, owner, id string, d int) (Session, error) {
	return s.update(ctx, owner, id, true, func(sess *Session) error {
		i := sess.CurrentIndex + d
		if i < 0 || i >= len(sess.Exam.Questions) {
			return ErrOutOfRange
		}
		sess.CurrentIndex = i
		return nil
	})
}

// NextDeferred moves to the first deferred question after the current one,
// wrapping around to the start.
func (s *Service) NextDeferred(ctx context.Context, owner, id string) (Session, error) {
	return s.update(ctx, owner, id, true, func(sess *Session) error {
		n := len(sess.Exam.Questions)
		for k := 1; k <= n; k++ {
			i := (sess.CurrentIndex + k) % n
			if sess.Deferred[sess.Exam.Questions[i].QuestionNumber] {
				sess.CurrentIndex = i
				return nil
			}
		}
		return ErrNoDeferred
	})
}

// Submit grades the session and closes it. Submitting a closed session
// returns it unchanged.
func (s *Service) Submit(ctx context.Context, owner, id string) (Session, error) {
	sess, err := s.update(ctx, owner, id, false, func(sess *Session) error {
		if sess.Open() {
			s.finish(ctx, sess, StatusSubmitted)
		}
		return nil
	})
	return sess, err
}

// Delete discards a session regardless of its state.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if owner != "" && sess.UserID != owner {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// update loads the session, expires it if the clock ran out, applies fn and
// saves the result. When mutating is set fn only runs on open sessions.
func (s *Service) update(ctx context.Context, owner, id string, mutating bool, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if owner != "" && sess.UserID != owner {
		return Session{}, ErrForbidden
	}

	dirty := false
	if sess.timedOut(s.now()) {
		s.finish(ctx, &sess, StatusExpired)
		dirty = true
	}
	if mutating && !sess.Open() {
		if dirty {
			if err := s.store.Put(ctx, sess); err != nil {
				return Session{}, err
			}
		}
		return sess, ErrClosed
	}

	before := sess.clone()
	if err := fn(&sess); err != nil {
		if dirty {
			if perr := s.store.Put(ctx, before); perr != nil {
				return Session{}, perr
			}
		}
		return before, err
	}
	if mutating || dirty || sess.Status != before.Status {
		if err := s.store.Put(ctx, sess); err != nil {
			return Session{}, err
		}
	}
	return sess, nil
}

func (s *Service) finish(ctx context.Context, sess *Session, status Status) {
	res := score(ctx, s.grader, sess.Exam, sess.Answers)
	now := s.now()
	sess.Status = status
	sess.SubmittedAt = &now
	sess.Result = &res
	metrics.SessionsSubmitted.WithLabelValues(string(status)).Inc()
	s.emit(ctx, syncx.TypeSessionSubmitted, sess.ID, map[string]any{
		"user_id": sess.UserID,
		"status":  status,
		"correct": res.Correct,
		"total":   res.Total,
		"percent": res.Percent,
	})
	s.log.Info("session closed",
		zap.String("session_id", sess.ID), zap.String("status", string(status)),
		zap.Int("correct", res.Correct), zap.Int("total", res.Total))
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	ev, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, ev)
	}
	if err != nil {
		s.log.Warn("event append failed", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}

func question(sess *Session, qnum int) (exam.Question, error) {
	if qnum < 1 || qnum > len(sess.Exam.Questions) {
		return exam.Question{}, fmt.Errorf("%w: %d", ErrOutOfRange, qnum)
	}
	return sess.Exam.Questions[qnum-1], nil
}
