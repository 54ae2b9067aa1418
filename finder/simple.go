package finder

import (
	"slices"
	"sync"

	"github.com/kochabx/axis/ioc"
)

// Simple is an in-memory finder populated explicitly.
type Simple struct {
	options

	mu        sync.RWMutex
	types     []Type
	contexts  []string
	byContext map[string][]string
}

// NewSimple creates an empty in-memory finder. Only WithClassifier applies.
func NewSimple(opts ...Option) *Simple {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Simple{
		options:   o,
		byContext: make(map[string][]string),
	}
}

// AddClass registers type names under context. The component is derived from
// the classified capabilities.
func (s *Simple) AddClass(context string, names ...string) *Simple {
	types := make([]Type, 0, len(names))
	for _, name := range names {
		name = ioc.NormalizeName(name)
		if name == "" {
			continue
		}

		t := Type{Context: context, Name: name}
		if s.classifier != nil {
			t.Caps = s.classifier.Classify(name)
		}
		t.Component = ComponentOf(t.Caps)
		types = append(types, t)
	}
	return s.Add(types...)
}

// Add registers fully described types.
func (s *Simple) Add(types ...Type) *Simple {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range types {
		t.Name = ioc.NormalizeName(t.Name)
		if t.Caps == 0 && s.classifier != nil {
			t.Caps = s.classifier.Classify(t.Name)
		}
		if _, ok := s.byContext[t.Context]; !ok {
			s.contexts = append(s.contexts, t.Context)
		}
		s.byContext[t.Context] = append(s.byContext[t.Context], t.Name)
		s.types = append(s.types, t)
	}
	return s
}

// Find returns exactly what was registered, in registration order.
func (s *Simple) Find() ([]Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.types), nil
}

// ByContext returns the registered names keyed by context.
func (s *Simple) ByContext() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]string, len(s.byContext))
	for _, ctx := range s.contexts {
		result[ctx] = slices.Clone(s.byContext[ctx])
	}
	return result
}
