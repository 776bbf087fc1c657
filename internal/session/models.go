package session

import (
	"time"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusExpired    Status = "expired" // submitted by the clock
)

type Kind string

const (
	KindExam     Kind = "exam"
	KindPractice Kind = "practice"
)

// Session is one sitting of a generated exam. Answers and Deferred are
// keyed by question number.
type Session struct {
	ID           string                   `json:"id"`
	UserID       string                   `json:"user_id"`
	Kind         Kind                     `json:"kind"`
	Config       exam.Config              `json:"config"`
	Exam         exam.Exam                `json:"exam"`
	CurrentIndex int                      `json:"current_index"`
	Answers      map[int]grading.Response `json:"answers"`
	Deferred     map[int]bool             `json:"deferred"`
	Status       Status                   `json:"status"`
	StartedAt    time.Time                `json:"started_at"`
	Deadline     time.Time                `json:"deadline"` // zero: untimed
	SubmittedAt  *time.Time               `json:"submitted_at,omitempty"`
	Result       *Result                  `json:"result,omitempty"`
}

func (s Session) Open() bool { return s.Status == StatusInProgress }

func (s Session) timedOut(now time.Time) bool {
	return s.Open() && !s.Deadline.IsZero() && !now.Before(s.Deadline)
}

// Remaining is the time left before the deadline, zero once it has passed
// or the session is closed. Untimed sessions report -1.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.Deadline.IsZero() {
		return -1
	}
	if !s.Open() || !now.Before(s.Deadline) {
		return 0
	}
	return s.Deadline.Sub(now)
}

func (s Session) clone() Session {
	out := s
	out.Answers = make(map[int]grading.Response, len(s.Answers))
	for k, v := range s.Answers {
		if v.Choice != nil {
			c := *v.Choice
			v.Choice = &c
		}
		out.Answers[k] = v
	}
	out.Deferred = make(map[int]bool, len(s.Deferred))
	for k, v := range s.Deferred {
		out.Deferred[k] = v
	}
	return out
}

// Tally counts outcomes over a set of questions.
type Tally struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	Total      int `json:"total"`
}

func (t *Tally) add(o outcome) {
	t.Total++
	switch o {
	case outcomeCorrect:
		t.Correct++
	case outcomeIncorrect:
		t.Incorrect++
	default:
		t.Unanswered++
	}
}

type Result struct {
	Tally
	Points    float64                     `json:"points"`
	Percent   float64                     `json:"percent"`
	ByType    map[bank.QuestionType]Tally `json:"by_type"`
	BySection map[int]Tally               `json:"by_section"`
}

// Summary is the list view of a session.
type Summary struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	Status         Status     `json:"status"`
	TotalQuestions int        `json:"total_questions"`
	Answered       int        `json:"answered"`
	StartedAt      time.Time  `json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Percent        *float64   `json:"percent,omitempty"`
}

func (s Session) Summary() Summary {
	sum := Summary{
		ID:             s.ID,
		Kind:           s.Kind,
		Status:         s.Status,
		TotalQuestions: len(s.Exam.Questions),
		StartedAt:      s.StartedAt,
		SubmittedAt:    s.SubmittedAt,
	}
	for _, r := range s.Answers {
		if !r.Empty() {
			sum.Answered++
		}
	}
	if s.Result != nil {
		p := s.Result.Percent
		sum.Percent = &p
	}
	return sum
}

// View is what a test-taker sees. Answer keys are withheld while the
// session is open.
type View struct {
	Session
	RemainingSec int `json:"remaining_sec"`
}

func (s Session) View(now time.Time) View {
	v := View{Session: s.clone()}
	if rem := s.Remaining(now); rem < 0 {
		v.RemainingSec = -1
	} else {
		v.RemainingSec = int(rem / time.Second)
	}
	if s.Open() {
		qs := make([]exam.Question, len(s.Exam.Questions))
		for i, q := range s.Exam.Questions {
			q.Answer = bank.Answer{}
			qs[i] = q
		}
		v.Exam.Questions = qs
	}
	return v
}
