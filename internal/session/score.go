package session

import (
	"context"
	"math"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/exam"
	"github.com/mind-engage/mindengage-examsim/internal/grading"
)

type outcome int

const (
	outcomeUnanswered outcome = iota
	outcomeCorrect
	outcomeIncorrect
)

// gradingQ maps a placed question onto the grader's view. Placed questions
// with choices always carry an index answer.
func gradingQ(q exam.Question) grading.Q {
	gq := grading.Q{
		Kind:       grading.KindFor(len(q.Choices), q.Answer.Text),
		Points:     1,
		AnswerText: q.Answer.Text,
	}
	if q.Answer.IsIndex() {
		gq.AnswerIndex = q.Answer.Index
	}
	return gq
}

func score(ctx context.Context, g grading.Grader, ex exam.Exam, answers map[int]grading.Response) Result {
	res := Result{
		ByType:    map[bank.QuestionType]Tally{},
		BySection: map[int]Tally{},
	}
	for _, q := range ex.Questions {
		o := outcomeUnanswered
		if resp, ok := answers[q.QuestionNumber]; ok && !resp.Empty() {
			o = outcomeIncorrect
			r, err := g.Grade(ctx, gradingQ(q), resp)
			if err == nil {
				res.Points += r.AutoPoints
				if r.Correct() {
					o = outcomeCorrect
				}
			}
		}
		res.add(o)

		bt := res.ByType[q.Type]
		bt.add(o)
		res.ByType[q.Type] = bt

		bs := res.BySection[q.Section]
		bs.add(o)
		res.BySection[q.Section] = bs
	}
	if res.Total > 0 {
		res.Percent = math.Round(float64(res.Correct)/float64(res.Total)*1000) / 10
	}
	return res
}
