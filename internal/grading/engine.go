package grading

import (
	"context"
	"errors"
	"strconv"
)

const (
	KindChoice    = "choice"
	KindShortWord = "short_word"
	KindNumeric   = "numeric"
)

var ErrBadResponse = errors.New("response does not fit the question kind")

// Q is the minimal view of a question needed for grading.
type Q struct {
	Kind        string
	Points      float64
	AnswerIndex int     // KindChoice
	AnswerText  string  // KindShortWord, KindNumeric
	Tolerance   float64 // KindNumeric: allowed relative error; 0 means exact
}

// Response is what a test-taker submitted for one question.
type Response struct {
	Choice *int   `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

func (r Response) Empty() bool { return r.Choice == nil && r.Text == "" }

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints float64  `json:"auto_points"`
	MaxPoints  float64  `json:"max_points"`
	Feedback   []string `json:"feedback,omitempty"`
}

func (r Result) Correct() bool { return r.MaxPoints > 0 && r.AutoPoints >= r.MaxPoints }

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response Response) (Result, error)
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response Response) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response Response) (Result, error) {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{MaxPoints: q.Points, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, response)
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int // for short-word fuzzy
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			KindChoice:    choiceStrategy{},
			KindShortWord: shortWordStrategy{maxEdit: cfg.MaxEditDistance},
			KindNumeric:   numericStrategy{},
		},
	}
}

// KindFor picks the strategy for a question: choices are graded by index,
// numeric free-text keys by tolerance, anything else by fuzzy text match.
func KindFor(numChoices int, answerText string) string {
	if numChoices > 0 {
		return KindChoice
	}
	if _, err := strconv.ParseFloat(answerText, 64); err == nil {
		return KindNumeric
	}
	return KindShortWord
}

// --- Strategies ---

type choiceStrategy struct{}

func (choiceStrategy) Grade(_ context.Context, q Q, response Response) (Result, error) {
	res := Result{MaxPoints: q.Points}
	if response.Choice == nil {
		return res, ErrBadResponse
	}
	if *response.Choice == q.AnswerIndex {
		res.AutoPoints = q.Points
	}
	return res, nil
}

type shortWordStrategy struct{ maxEdit int }

func (s shortWordStrategy) Grade(_ context.Context, q Q, response Response) (Result, error) {
	res := Result{MaxPoints: q.Points}
	if response.Choice != nil {
		return res, ErrBadResponse
	}
	nk, nr := normalize(q.AnswerText), normalize(response.Text)
	if nk == nr {
		res.AutoPoints = q.Points
		return res, nil
	}
	if s.maxEdit > 0 && levenshtein(nk, nr) <= s.maxEdit {
		res.AutoPoints = q.Points * 0.5
		res.Feedback = append(res.Feedback, "close match (fuzzy)")
	}
	return res, nil
}
