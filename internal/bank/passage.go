package bank

import "sort"

// NoPassageKey groups every question that has no passage.
const NoPassageKey = "no-passage"

// GroupByPassage partitions questions by PassageID. Every passage-less question
// lands in one shared NoPassageKey group. Each group is sorted by question
// number and cut to maxPerPassage entries (maxPerPassage <= 0 keeps all).
// Groups come back in order of first encounter.
func GroupByPassage(questions []Question, maxPerPassage int) [][]Question {
	var order []string
	groups := map[string][]Question{}
	for _, q := range questions {
		key := GroupKey(q)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], q)
	}

	out := make([][]Question, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.SliceStable(g, func(i, j int) bool { return g[i].QuestionNumber < g[j].QuestionNumber })
		if maxPerPassage > 0 && len(g) > maxPerPassage {
			g = g[:maxPerPassage]
		}
		out = append(out, g)
	}
	return out
}

// GroupKey returns the key GroupByPassage files q under.
func GroupKey(q Question) string {
	if q.PassageID == "" {
		return NoPassageKey
	}
	return q.PassageID
}
