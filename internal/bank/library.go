package bank

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Provider hands out the pools to draw from.
type Provider interface {
	Current() *Pools
}

// Current lets a fixed set of pools act as its own Provider.
func (p *Pools) Current() *Pools { return p }

// Library keeps the live pools for a manifest and can rebuild them from
// the source. Readers never block on a reload.
type Library struct {
	src      Source
	manifest Manifest
	log      *zap.Logger

	reload sync.Mutex
	cur    atomic.Pointer[Pools]
}

// NewLibrary builds the pools once before returning.
func NewLibrary(ctx context.Context, src Source, m Manifest, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Library{src: src, manifest: m, log: log}
	l.cur.Store(Build(ctx, src, m, log))
	return l
}

func (l *Library) Current() *Pools    { return l.cur.Load() }
func (l *Library) Manifest() Manifest { return l.manifest }

func (l *Library) Lookup(id string) (Question, bool) { return l.cur.Load().Lookup(id) }

// Reload rebuilds every pool and swaps them in.
func (l *Library) Reload(ctx context.Context) *Pools {
	l.reload.Lock()
	defer l.reload.Unlock()
	p := Build(ctx, l.src, l.manifest, l.log)
	l.cur.Store(p)
	l.log.Info("question bank reloaded", zap.Int("questions", p.Total()))
	return p
}
