package grading

import (
	"context"
	"math"
	"strconv"
	"strings"
)

const epsilon = 1e-9

// numericStrategy grades free-text numeric keys. Responses may carry a
// trailing unit ("12 cm") or be written as a simple fraction ("3/4").
type numericStrategy struct{}

func (numericStrategy) Grade(_ context.Context, q Q, response Response) (Result, error) {
	res := Result{MaxPoints: q.Points}
	if response.Choice != nil {
		return res, ErrBadResponse
	}
	want, ok := leadingNumber(q.AnswerText)
	if !ok {
		return res, nil
	}
	got, ok := leadingNumber(response.Text)
	if !ok {
		return res, nil
	}

	allowed := epsilon
	if q.Tolerance > 0 {
		allowed = math.Max(allowed, q.Tolerance*math.Abs(want))
	}
	if math.Abs(got-want) <= allowed {
		res.AutoPoints = q.Points
	}
	return res, nil
}

// leadingNumber parses the first whitespace-separated token of s as a
// decimal or a/b fraction.
func leadingNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	tok := strings.TrimSuffix(fields[0], "%")
	if num, den, ok := strings.Cut(tok, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(tok, 64)
	return v, err == nil
}
