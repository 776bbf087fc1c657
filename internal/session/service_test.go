package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/db"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
	syncx "github.com/mind-engage/mindengage-examsim/internal/sync"
)

type recorder struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (r *recorder) Append(_ context.Context, e syncx.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func analogyPool(n int) *bank.Pools {
	var qs []bank.Question
	for i := 0; i < n; i++ {
		raw := bank.RawQuestion{
			Question: fmt.Sprintf("analogy %d", i),
			Choices:  []string{"a", "b", "c", "d"},
			Answer:   bank.IndexAnswer(i % 4),
		}
		qs = append(qs, bank.Normalize(raw, bank.TypeAnalogy, i))
	}
	return bank.NewPools(map[bank.QuestionType][]bank.Question{bank.TypeAnalogy: qs})
}

var analogyOnly = exam.Config{ExamMode: exam.ModeSingle, SelectedQuestionType: bank.TypeAnalogy}

func newTestService(t *testing.T, store Store) (*Service, *clock, *recorder) {
	t.Helper()
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	gen := exam.NewGenerator(analogyPool(8), exam.WithSeed(7))
	return NewService(store, gen, WithClock(c.now), WithEvents(rec)), c, rec
}

func choice(i int) grading.Response { return grading.Response{Choice: &i} }

func TestStartAnswerSubmit(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newTestService(t, NewInMemoryStore())

	sess, err := svc.Start(ctx, "u1", analogyOnly)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(sess.Exam.Questions) != exam.ExamLength {
		t.Fatalf("want %d questions, got %d", exam.ExamLength, len(sess.Exam.Questions))
	}
	if want := sess.StartedAt.Add(DefaultTimeLimit); !sess.Deadline.Equal(want) {
		t.Fatalf("deadline %v, want %v", sess.Deadline, want)
	}

	q1, q2 := sess.Exam.Questions[0], sess.Exam.Questions[1]
	if _, err := svc.Answer(ctx, "u1", sess.ID, 1, choice(q1.Answer.Index)); err != nil {
		t.Fatalf("answer 1: %v", err)
	}
	if _, err := svc.Answer(ctx, "u1", sess.ID, 2, choice((q2.Answer.Index+1)%4)); err != nil {
		t.Fatalf("answer 2: %v", err)
	}

	done, err := svc.Submit(ctx, "u1", sess.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if done.Status != StatusSubmitted || done.Result == nil || done.SubmittedAt == nil {
		t.Fatalf("session not closed: %+v", done.Status)
	}
	r := done.Result
	if r.Correct != 1 || r.Incorrect != 1 || r.Unanswered != exam.ExamLength-2 || r.Total != exam.ExamLength {
		t.Fatalf("unexpected tally %+v", r.Tally)
	}
	if r.Percent != 1.5 {
		t.Fatalf("percent %v", r.Percent)
	}
	if r.ByType[bank.TypeAnalogy].Total != exam.ExamLength {
		t.Fatalf("by type %+v", r.ByType)
	}

	// second submit is a no-op
	again, err := svc.Submit(ctx, "u1", sess.ID)
	if err != nil || again.Result.Correct != 1 {
		t.Fatalf("resubmit: %v %+v", err, again.Result)
	}
	if got := rec.types(); len(got) != 2 || got[0] != syncx.TypeSessionStarted || got[1] != syncx.TypeSessionSubmitted {
		t.Fatalf("events %v", got)
	}

	if _, err := svc.Answer(ctx, "u1", sess.ID, 3, choice(0)); !errors.Is(err, ErrClosed) {
		t.Fatalf("answer after submit: %v", err)
	}
}

func TestAnswerValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, NewInMemoryStore())
	sess, _ := svc.Start(ctx, "u1", analogyOnly)

	if _, err := svc.Answer(ctx, "u1", sess.ID, 0, choice(0)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("qnum 0: %v", err)
	}
	if _, err := svc.Answer(ctx, "u1", sess.ID, 66, choice(0)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("qnum 66: %v", err)
	}
	if _, err := svc.Answer(ctx, "u1", sess.ID, 1, choice(4)); !errors.Is(err, grading.ErrBadResponse) {
		t.Fatalf("choice 4: %v", err)
	}
	if _, err := svc.Answer(ctx, "u1", sess.ID, 1, grading.Response{Text: "a"}); !errors.Is(err, grading.ErrBadResponse) {
		t.Fatalf("text for choice question: %v", err)
	}

	got, err := svc.Answer(ctx, "u1", sess.ID, 5, choice(2))
	if err != nil || got.CurrentIndex != 4 {
		t.Fatalf("answer 5: %v idx=%d", err, got.CurrentIndex)
	}
	got, err = svc.Answer(ctx, "u1", sess.ID, 5, grading.Response{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Answers[5]; ok {
		t.Fatal("empty response should clear the answer")
	}
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, NewInMemoryStore())
	sess, _ := svc.Start(ctx, "u1", analogyOnly)

	if _, err := svc.Get(ctx, "u2", sess.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign get: %v", err)
	}
	if err := svc.Delete(ctx, "u2", sess.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete: %v", err)
	}
	if _, err := svc.Get(ctx, "", sess.ID); err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
	if err := svc.Delete(ctx, "u1", sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, "u1", sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: %v", err)
	}
}

func TestDeadlineExpires(t *testing.T) {
	ctx := context.Background()
	svc, c, rec := newTestService(t, NewInMemoryStore())
	sess, _ := svc.Start(ctx, "u1", analogyOnly)
	if _, err := svc.Answer(ctx, "u1", sess.ID, 1, choice(sess.Exam.Questions[0].Answer.Index)); err != nil {
		t.Fatal(err)
	}

	c.advance(30 * time.Minute)
	v := sess.View(c.now())
	if v.RemainingSec != int((35 * time.Minute).Seconds()) {
		t.Fatalf("remaining %d", v.RemainingSec)
	}

	c.advance(DefaultTimeLimit)
	got, err := svc.Answer(ctx, "u1", sess.ID, 2, choice(0))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if got.Status != StatusExpired || got.Result == nil || got.Result.Correct != 1 {
		t.Fatalf("expired session %+v %+v", got.Status, got.Result)
	}

	stored, err := svc.Get(ctx, "u1", sess.ID)
	if err != nil || stored.Status != StatusExpired {
		t.Fatalf("stored status %v err %v", stored.Status, err)
	}
	if got := rec.types(); len(got) != 2 {
		t.Fatalf("expiry should emit exactly one submit event, got %v", got)
	}
}

func TestDeferAndNavigation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, NewInMemoryStore())
	sess, _ := svc.Start(ctx, "u1", analogyOnly)

	if _, err := svc.NextDeferred(ctx, "u1", sess.ID); !errors.Is(err, ErrNoDeferred) {
		t.Fatalf("no deferred: %v", err)
	}
	if _, err := svc.Prev(ctx, "u1", sess.ID); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("prev at start: %v", err)
	}

	for _, n := range []int{3, 10, 7} {
		if _, err := svc.ToggleDefer(ctx, "u1", sess.ID, n); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := svc.ToggleDefer(ctx, "u1", sess.ID, 7)
	if got.Deferred[7] || !got.Deferred[3] || !got.Deferred[10] {
		t.Fatalf("deferred set %v", got.Deferred)
	}

	got, _ = svc.NextDeferred(ctx, "u1", sess.ID)
	if got.CurrentIndex != 2 {
		t.Fatalf("first deferred index %d", got.CurrentIndex)
	}
	got, _ = svc.NextDeferred(ctx, "u1", sess.ID)
	if got.CurrentIndex != 9 {
		t.Fatalf("second deferred index %d", got.CurrentIndex)
	}
	got, _ = svc.NextDeferred(ctx, "u1", sess.ID)
	if got.CurrentIndex != 2 {
		t.Fatalf("wrap index %d", got.CurrentIndex)
	}

	got, _ = svc.Next(ctx, "u1", sess.ID)
	if got.CurrentIndex != 3 {
		t.Fatalf("next index %d", got.CurrentIndex)
	}
	if _, err := svc.Navigate(ctx, "u1", sess.ID, exam.ExamLength); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Next(ctx, "u1", sess.ID); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("next at end: %v", err)
	}
}

func TestViewHidesAnswersWhileOpen(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t, NewInMemoryStore())
	sess, _ := svc.Start(ctx, "u1", analogyOnly)

	v := sess.View(c.now())
	for _, q := range v.Exam.Questions {
		if !q.Answer.IsZero() {
			t.Fatalf("answer visible on open session: %+v", q.Answer)
		}
	}
	if sess.Exam.Questions[0].Answer.IsZero() {
		t.Fatal("view must not strip the stored session")
	}

	done, _ := svc.Submit(ctx, "u1", sess.ID)
	v = done.View(c.now())
	if v.Exam.Questions[0].Answer.IsZero() {
		t.Fatal("answers should be visible after submit")
	}
	if v.RemainingSec != 0 {
		t.Fatalf("remaining after submit %d", v.RemainingSec)
	}
}

func TestStartWithEmptyPools(t *testing.T) {
	svc := NewService(NewInMemoryStore(), exam.NewGenerator(bank.NewPools(nil)))
	if _, err := svc.Start(context.Background(), "u1", exam.Config{}); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
	if _, err := svc.Start(context.Background(), "u1", exam.Config{ExamMode: exam.ModeSingle}); !errors.Is(err, exam.ErrNoQuestionType) {
		t.Fatalf("want ErrNoQuestionType, got %v", err)
	}
}

func TestPracticeIsUntimed(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t, NewInMemoryStore())
	qs := analogyPool(3).Pool(bank.TypeAnalogy)

	sess, err := svc.StartPractice(ctx, "u1", qs, exam.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Kind != KindPractice || !sess.Deadline.IsZero() || len(sess.Exam.Questions) != 3 {
		t.Fatalf("practice session %+v", sess.Summary())
	}
	c.advance(24 * time.Hour)
	if _, err := svc.Answer(ctx, "u1", sess.ID, 1, choice(0)); err != nil {
		t.Fatalf("practice should not expire: %v", err)
	}
	if _, err := svc.StartPractice(ctx, "u1", nil, exam.Config{}); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("empty practice: %v", err)
	}
}

func TestListSummaries(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t, NewInMemoryStore())
	first, _ := svc.Start(ctx, "u1", analogyOnly)
	c.advance(time.Minute)
	second, _ := svc.Start(ctx, "u1", analogyOnly)
	svc.Start(ctx, "u2", analogyOnly)
	svc.Answer(ctx, "u1", second.ID, 1, choice(0))

	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("list order %+v", list)
	}
	if list[0].Answered != 1 || list[0].TotalQuestions != exam.ExamLength {
		t.Fatalf("summary %+v", list[0])
	}

	c.advance(2 * time.Hour)
	list, _ = svc.List(ctx, "u1")
	for _, s := range list {
		if s.Status != StatusExpired || s.Percent == nil {
			t.Fatalf("stale session not expired: %+v", s)
		}
	}
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "s.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	svc, _, _ := newTestService(t, NewSQLStore(d))
	sess, err := svc.Start(ctx, "u1", analogyOnly)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Answer(ctx, "u1", sess.ID, 2, choice(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ToggleDefer(ctx, "u1", sess.ID, 4); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, "u1", sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *got.Answers[2].Choice != 1 || !got.Deferred[4] || got.CurrentIndex != 1 {
		t.Fatalf("round trip lost state: answers=%v deferred=%v idx=%d", got.Answers, got.Deferred, got.CurrentIndex)
	}
	if len(got.Exam.Questions) != exam.ExamLength || got.Exam.Questions[0].ID != sess.Exam.Questions[0].ID {
		t.Fatal("exam script not preserved")
	}

	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if err := svc.Delete(ctx, "u1", sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSQLStore(d).Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: %v", err)
	}
}
