package bank

import (
	"encoding/json"
	"fmt"
	"math"
)

// QuestionType tags which bank a question was drawn from.
type QuestionType string

const (
	TypeAnalogy    QuestionType = "analogy"
	TypeCompletion QuestionType = "completion"
	TypeError      QuestionType = "error"
	TypeRC         QuestionType = "rc"
	TypeOdd        QuestionType = "odd"
)

// AllTypes lists every question type in the fixed draw order used by the generator.
var AllTypes = []QuestionType{TypeAnalogy, TypeCompletion, TypeError, TypeRC, TypeOdd}

func (t QuestionType) Valid() bool {
	switch t {
	case TypeAnalogy, TypeCompletion, TypeError, TypeRC, TypeOdd:
		return true
	}
	return false
}

// AnswerKind says how an Answer refers to the correct choice.
type AnswerKind uint8

const (
	AnswerNone  AnswerKind = iota
	AnswerIndex            // zero-based index into Choices
	AnswerText             // literal choice text, or free text when there are no choices
)

// Answer is the string-or-number "answer" field of a source record.
type Answer struct {
	Kind  AnswerKind
	Index int
	Text  string
}

func IndexAnswer(i int) Answer   { return Answer{Kind: AnswerIndex, Index: i} }
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }
func (a Answer) IsIndex() bool   { return a.Kind == AnswerIndex }
func (a Answer) IsZero() bool    { return a.Kind == AnswerNone }

func (a Answer) String() string {
	switch a.Kind {
	case AnswerIndex:
		return fmt.Sprintf("#%d", a.Index)
	case AnswerText:
		return a.Text
	}
	return ""
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*a = Answer{}
	case string:
		*a = TextAnswer(x)
	case float64:
		if x != math.Trunc(x) {
			return fmt.Errorf("answer index %v is not an integer", x)
		}
		*a = IndexAnswer(int(x))
	default:
		return fmt.Errorf("answer must be a string or a number, got %s", string(b))
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerIndex:
		return json.Marshal(a.Index)
	case AnswerText:
		return json.Marshal(a.Text)
	}
	return []byte("null"), nil
}

// RawQuestion is one record of a source collection as it appears on disk.
type RawQuestion struct {
	QuestionNumber *int     `json:"question_number,omitempty"`
	Question       string   `json:"question"`
	Choices        []string `json:"choices,omitempty"`
	Answer         Answer   `json:"answer"`
	Passage        string   `json:"passage,omitempty"`
	Category       string   `json:"category,omitempty"`
	Exam           string   `json:"exam,omitempty"`
}

// usable reports whether the record carries any content worth normalizing.
func (r RawQuestion) usable() bool {
	return r.Question != "" || len(r.Choices) > 0
}

// Question is the canonical, normalized form shared by every pool.
type Question struct {
	ID             string       `json:"id"`
	QuestionNumber int          `json:"question_number"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Choices        []string     `json:"choices"`
	Answer         Answer       `json:"answer"`
	Passage        string       `json:"passage,omitempty"`
	PassageID      string       `json:"passage_id,omitempty"`
	Category       string       `json:"category,omitempty"`
	Exam           string       `json:"exam,omitempty"`
}

// Clone returns a copy that shares no mutable state with q.
func (q Question) Clone() Question {
	out := q
	out.Choices = append([]string(nil), q.Choices...)
	if out.Choices == nil {
		out.Choices = []string{}
	}
	return out
}
