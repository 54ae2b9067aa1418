package starter

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/axis/log"
)

// Pool is the registry of the starters of a process, keyed by slug.
type Pool struct {
	mu       sync.RWMutex
	starters map[string]*Starter
	slugs    []string
	metrics  *Metrics
}

// NewPool creates an empty pool with its own metrics.
func NewPool() *Pool {
	return &Pool{
		starters: make(map[string]*Starter),
		metrics:  NewMetrics(),
	}
}

// Add registers s under its slug, replacing any starter with the same slug.
// A starter without metrics records into the pool metrics.
func (p *Pool) Add(s *Starter) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	slug := s.Slug()
	if _, ok := p.starters[slug]; ok {
		log.Warn().Str("component", "starter").Str("slug", slug).Msg("starter replaced in pool")
	} else {
		p.slugs = append(p.slugs, slug)
	}
	if s.metrics == nil {
		s.metrics = p.metrics
	}
	p.starters[slug] = s
}

// Get returns the starter registered under slug, or nil.
func (p *Pool) Get(slug string) *Starter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.starters[slug]
}

// Slugs returns the registered slugs in registration order.
func (p *Pool) Slugs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.slugs)
}

// Starters returns the registered starters in registration order.
func (p *Pool) Starters() []*Starter {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*Starter, 0, len(p.slugs))
	for _, slug := range p.slugs {
		result = append(result, p.starters[slug])
	}
	return result
}

// StartAll starts every starter concurrently and returns the first error.
// Starters own their containers, so their pipelines do not share state.
func (p *Pool) StartAll(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, s := range p.Starters() {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return s.Start()
		})
	}
	return eg.Wait()
}

// Close closes every starter.
func (p *Pool) Close() error {
	var errs []error
	for _, s := range p.Starters() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) Metrics() *Metrics {
	return p.metrics
}
