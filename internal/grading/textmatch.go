package grading

import (
	"strings"
	"unicode"
)

// normalize casefolds, drops punctuation and collapses whitespace.
func normalize(s string) string {
	words := strings.FieldsFunc(s, unicode.IsSpace)
	out := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, w)
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// levenshtein is the edit distance with unit insert/delete/substitute costs.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}
	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(br); j++ {
			up := row[j]
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = up
		}
	}
	return row[len(br)]
}
