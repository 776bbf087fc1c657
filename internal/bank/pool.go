package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Source yields the raw bytes of a named collection file.
type Source interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Pools holds one immutable slice of questions per type. It is built once and
// only read afterwards, so it is safe to share between goroutines.
type Pools struct {
	byType map[QuestionType][]Question
	byID   map[string]Question
}

// NewPools wraps already-normalized questions. Used by Build and by tests.
func NewPools(byType map[QuestionType][]Question) *Pools {
	p := &Pools{byType: map[QuestionType][]Question{}, byID: map[string]Question{}}
	for _, t := range AllTypes {
		qs := append([]Question(nil), byType[t]...)
		p.byType[t] = qs
		for _, q := range qs {
			p.byID[q.ID] = q
		}
	}
	return p
}

// Pool returns a fresh copy of the pool for t. Callers may reorder it freely.
func (p *Pools) Pool(t QuestionType) []Question {
	return append([]Question(nil), p.byType[t]...)
}

// Lookup finds a question by id; padded repeat ids resolve to their source.
func (p *Pools) Lookup(id string) (Question, bool) {
	q, ok := p.byID[CanonicalID(id)]
	return q, ok
}

func (p *Pools) Sizes() map[QuestionType]int {
	out := make(map[QuestionType]int, len(AllTypes))
	for _, t := range AllTypes {
		out[t] = len(p.byType[t])
	}
	return out
}

func (p *Pools) Total() int { return len(p.byID) }

// Build loads every collection named in the manifest and normalizes it.
// Collections that cannot be read or decoded are logged and skipped; the
// remaining pools still build. Files listed under one type are merged with
// their source indexes offset by the length of the files before them.
func Build(ctx context.Context, src Source, m Manifest, log *zap.Logger) *Pools {
	if log == nil {
		log = zap.NewNop()
	}
	byType := map[QuestionType][]Question{}
	for _, t := range AllTypes {
		offset := 0
		for _, file := range m.Sources[t] {
			raws, err := loadCollection(ctx, src, file)
			if err != nil {
				log.Error("question collection skipped",
					zap.String("type", string(t)), zap.String("file", file), zap.Error(err))
				continue
			}
			kept := 0
			for i, raw := range raws {
				if !raw.usable() {
					continue
				}
				byType[t] = append(byType[t], Normalize(raw, t, offset+i))
				kept++
			}
			log.Info("question collection loaded",
				zap.String("type", string(t)), zap.String("file", file),
				zap.Int("records", len(raws)), zap.Int("kept", kept))
			offset += len(raws)
		}
	}
	return NewPools(byType)
}

func loadCollection(ctx context.Context, src Source, file string) ([]RawQuestion, error) {
	rc, err := src.Get(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	defer rc.Close()
	raws, err := DecodeCollection(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return raws, nil
}

// DecodeCollection reads a JSON array of question records.
func DecodeCollection(r io.Reader) ([]RawQuestion, error) {
	var raws []RawQuestion
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, err
	}
	return raws, nil
}
