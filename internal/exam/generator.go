package exam

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
)

var (
	ErrNoQuestionType      = errors.New("single-type exam requires a question type")
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrInvalidConfig       = errors.New("invalid exam config")
)

// Generator assembles exams from the pools its Provider currently holds.
// Generate may be called concurrently; each call draws from its own random
// stream.
type Generator struct {
	pools bank.Provider
	log   *zap.Logger

	mu   sync.Mutex
	seed *rand.Rand
}

type Option func(*Generator)

// WithSeed makes every generated exam reproducible for a given seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = rand.New(rand.NewSource(seed)) }
}

func WithLogger(l *zap.Logger) Option { return func(g *Generator) { g.log = l } }

func NewGenerator(pools bank.Provider, opts ...Option) *Generator {
	g := &Generator{
		pools: pools,
		log:   zap.NewNop(),
		seed:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) rng() *rand.Rand {
	g.mu.Lock()
	defer g.mu.Unlock()
	return rand.New(rand.NewSource(g.seed.Int63()))
}

// Generate builds a fresh exam for cfg. Errors are limited to config
// misuse: unknown enum values, or a single-type request without a usable
// type. An empty pool yields an empty exam.
func (g *Generator) Generate(cfg Config) (Exam, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Exam{}, err
	}
	r := g.rng()
	if cfg.SingleType() {
		return g.single(r, cfg)
	}
	return g.sectioned(r, cfg), nil
}

func (g *Generator) single(r *rand.Rand, cfg Config) (Exam, error) {
	t := cfg.SelectedQuestionType
	if t == "" {
		return Exam{}, ErrNoQuestionType
	}
	if !t.Valid() {
		return Exam{}, fmt.Errorf("%w: %q", ErrUnknownQuestionType, t)
	}

	pool := g.pools.Current().Pool(t)
	if len(pool) == 0 {
		g.log.Warn("single-type exam requested from empty pool", zap.String("type", string(t)))
		return Exam{Questions: []Question{}, Structure: map[bank.QuestionType]int{}}, nil
	}

	var selected []bank.Question
	if t == bank.TypeRC && cfg.RCQuestionOrder == RCSequential {
		groups := bank.GroupByPassage(pool, singleRCPerSet)
		shuffle(r, groups)
		for _, grp := range groups {
			selected = append(selected, grp...)
		}
	} else {
		shuffle(r, pool)
		selected = pool
	}
	if len(selected) > ExamLength {
		selected = selected[:ExamLength]
	}

	if n := len(selected); n > 0 && n < ExamLength {
		for i := n; i < ExamLength; i++ {
			rep := selected[i%n].Clone()
			rep.ID = bank.RepeatID(rep.ID, i)
			selected = append(selected, rep)
		}
	}

	out := make([]Question, 0, len(selected))
	for _, q := range selected {
		out = append(out, g.place(r, q, 1, cfg.ShuffleChoices))
	}
	renumber(out)

	return Exam{
		Questions:           out,
		TotalQuestions:      ExamLength,
		TotalSections:       1,
		QuestionsPerSection: ExamLength,
		Structure:           map[bank.QuestionType]int{t: ExamLength},
	}, nil
}

func (g *Generator) sectioned(r *rand.Rand, cfg Config) Exam {
	pools := g.pools.Current()
	working := make(map[bank.QuestionType][]bank.Question, len(bank.AllTypes))
	for _, t := range bank.AllTypes {
		p := pools.Pool(t)
		if cfg.ShuffleQuestions && t != bank.TypeRC {
			shuffle(r, p)
		}
		working[t] = p
	}

	used := map[string]struct{}{}
	perPassage := map[string]int{}
	var (
		out        []Question
		shortfalls []Shortfall
	)
	for i, quota := range Sections {
		section := i + 1
		for _, t := range bank.AllTypes {
			want := quota.Counts[t]
			if want == 0 {
				continue
			}
			avail := unused(working[t], used)

			var drawn []bank.Question
			switch {
			case t != bank.TypeRC:
				drawn = avail[:min(want, len(avail))]
			case cfg.RCQuestionOrder == RCRandom:
				shuffle(r, avail)
				drawn = avail[:min(want, len(avail))]
			default:
				drawn = drawPassages(r, avail, want, quota.RCMaxPerPassage, perPassage)
			}

			for _, q := range drawn {
				used[q.ID] = struct{}{}
				if q.PassageID != "" {
					perPassage[q.PassageID]++
				}
				out = append(out, g.place(r, q, section, cfg.ShuffleChoices))
			}
			if len(drawn) < want {
				shortfalls = append(shortfalls, Shortfall{Section: section, Type: t, Want: want, Got: len(drawn)})
			}
		}
	}
	renumber(out)

	if len(shortfalls) > 0 {
		g.log.Warn("sectioned exam is short of its nominal structure",
			zap.Int("questions", len(out)),
			zap.Int("nominal", ExamLength),
			zap.Any("shortfalls", shortfalls))
	}
	if out == nil {
		out = []Question{}
	}
	return Exam{
		Questions:           out,
		TotalQuestions:      ExamLength,
		TotalSections:       SectionCount,
		QuestionsPerSection: SectionLength,
		Structure:           NominalStructure(),
		Shortfalls:          shortfalls,
	}
}

// drawPassages takes whole passage groups in shuffled order until want is
// reached, slicing the first group that would overflow. A passage never
// contributes more than maxPer questions to one exam; the lowest-numbered
// ones are kept. Passage-less questions share one group and are only capped
// within the section.
func drawPassages(r *rand.Rand, avail []bank.Question, want, maxPer int, perPassage map[string]int) []bank.Question {
	groups := bank.GroupByPassage(avail, maxPer)
	eligible := groups[:0]
	for _, grp := range groups {
		if pid := grp[0].PassageID; pid != "" {
			left := maxPer - perPassage[pid]
			if left <= 0 {
				continue
			}
			if len(grp) > left {
				grp = grp[:left]
			}
		}
		eligible = append(eligible, grp)
	}
	shuffle(r, eligible)

	var drawn []bank.Question
	for _, grp := range eligible {
		if len(drawn)+len(grp) <= want {
			drawn = append(drawn, grp...)
			continue
		}
		drawn = append(drawn, grp[:want-len(drawn)]...)
		break
	}
	return drawn
}

// Practice builds a single-section exam from a caller-chosen list, such as
// a bookmark folder. No padding is applied.
func (g *Generator) Practice(questions []bank.Question, cfg Config) Exam {
	r := g.rng()
	qs := append([]bank.Question(nil), questions...)
	if cfg.ShuffleQuestions {
		shuffle(r, qs)
	}
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, g.place(r, q, 1, cfg.ShuffleChoices))
	}
	renumber(out)

	structure := map[bank.QuestionType]int{}
	for _, q := range out {
		structure[q.Type]++
	}
	return Exam{
		Questions:           out,
		TotalQuestions:      len(out),
		TotalSections:       1,
		QuestionsPerSection: len(out),
		Structure:           structure,
	}
}

// place copies q into an exam slot, resolving its answer to an index and
// optionally shuffling its choices.
func (g *Generator) place(r *rand.Rand, q bank.Question, section int, shuffleChoices bool) Question {
	out := Question{Question: q.Clone(), Section: section, OriginalType: q.Type}
	if len(out.Choices) == 0 {
		return out
	}
	idx, ok := bank.ResolveAnswer(out.Question)
	if !ok {
		g.log.Warn("answer not found among choices, using first choice",
			zap.String("id", q.ID), zap.Stringer("answer", q.Answer))
	}
	if shuffleChoices {
		out.Choices, idx = ShuffleChoices(r, out.Choices, idx)
	}
	out.Answer = bank.IndexAnswer(idx)
	return out
}

// ShuffleChoices permutes choices and returns the new index of the choice
// that was at answer. The input slice is not modified.
func ShuffleChoices(r *rand.Rand, choices []string, answer int) ([]string, int) {
	correct := choices[answer]
	out := append([]string(nil), choices...)
	shuffle(r, out)
	for i, c := range out {
		if c == correct {
			return out, i
		}
	}
	return out, 0
}

func unused(pool []bank.Question, used map[string]struct{}) []bank.Question {
	out := make([]bank.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := used[q.ID]; !ok {
			out = append(out, q)
		}
	}
	return out
}

func renumber(qs []Question) {
	for i := range qs {
		qs[i].QuestionNumber = i + 1
	}
}

func shuffle[T any](r *rand.Rand, s []T) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
