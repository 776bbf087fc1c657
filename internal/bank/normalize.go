package bank

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// contentSpace namespaces the name-based UUIDs used as content hashes.
var contentSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:mindengage:examsim:question"))

// Normalize converts a raw record into the canonical shape. It never fails:
// missing fields degrade to empty values. Rejecting empty records is the
// caller's job.
func Normalize(raw RawQuestion, typ QuestionType, sourceIndex int) Question {
	num, key := sourceIndex+1, sourceIndex
	if raw.QuestionNumber != nil {
		num, key = *raw.QuestionNumber, *raw.QuestionNumber
	}
	choices := append([]string{}, raw.Choices...)

	q := Question{
		QuestionNumber: num,
		Question:       raw.Question,
		Type:           typ,
		Choices:        choices,
		Answer:         raw.Answer,
		Passage:        raw.Passage,
		Category:       raw.Category,
		Exam:           raw.Exam,
	}
	if raw.Passage != "" {
		q.PassageID = PassageID(raw.Passage)
	}
	q.ID = fmt.Sprintf("%s-%d-%s", typ, key, ContentHash(q))
	return q
}

// ContentHash is a stable 32-char hex token over (question, choices, answer, passage).
func ContentHash(q Question) string {
	canon, _ := json.Marshal(struct {
		Q string   `json:"q"`
		C []string `json:"c"`
		A Answer   `json:"a"`
		P string   `json:"p"`
	}{q.Question, q.Choices, q.Answer, q.Passage})
	u := uuid.NewSHA1(contentSpace, canon)
	return strings.ReplaceAll(u.String(), "-", "")
}

// PassageID is the short grouping key for a passage text.
func PassageID(passage string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(passage))
}

var repeatSuffix = regexp.MustCompile(`-repeat-\d+$`)

// RepeatID derives the id of the i-th padded repeat of a question.
func RepeatID(id string, i int) string {
	return id + "-repeat-" + strconv.Itoa(i)
}

// CanonicalID strips a padding suffix, mapping a repeat back to its source question.
func CanonicalID(id string) string {
	return repeatSuffix.ReplaceAllString(id, "")
}

// ResolveAnswer maps q.Answer to a zero-based index into q.Choices.
// ok is false when the answer could not be located; the returned index is
// then 0. Questions without choices return (0, true) and are left as free text.
func ResolveAnswer(q Question) (idx int, ok bool) {
	if len(q.Choices) == 0 {
		return 0, true
	}
	switch q.Answer.Kind {
	case AnswerIndex:
		if q.Answer.Index < 0 || q.Answer.Index >= len(q.Choices) {
			return 0, false
		}
		return q.Answer.Index, true
	case AnswerText:
		for i, c := range q.Choices {
			if c == q.Answer.Text {
				return i, true
			}
		}
	}
	return 0, false
}
