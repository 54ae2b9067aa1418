// Package resolver turns discovered types into running components.
//
// Each resolver iterates the finder output, applies its filters and role
// predicate, obtains a shared instance from the container and drives the
// instance's registration entry point. Component failures are returned as
// is: a mis-registered component aborts startup.
package resolver

import (
	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/schema"
)

// Resolver is one stage of the startup pipeline.
type Resolver interface {
	Resolve() error
}

// Host is what resolvers need from their starter.
type Host interface {
	hook.Host
	Schema() schema.Registry
	Request() *Request
}

// Observer is notified of every type a resolver instantiated.
type Observer interface {
	TypeResolved(resolver string, t finder.Type)
}

// ErrCapability is returned when a resolved instance does not provide the
// capability its discovered type was classified with.
var ErrCapability = errors.BindingResolution("resolved instance lacks capability")

// Option configures a resolver.
type Option func(*options)

type options struct {
	observer   Observer
	classifier finder.Classifier
}

// WithObserver sets the observer notified after each resolved type.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithClassifier sets the classifier used for types discovered without
// capabilities. The host container catalog is used by default.
func WithClassifier(c finder.Classifier) Option {
	return func(opts *options) {
		opts.classifier = c
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) capabilities(host Host, t finder.Type) finder.Capability {
	if t.Caps != 0 {
		return t.Caps
	}
	if o.classifier != nil {
		return o.classifier.Classify(t.Name)
	}
	if cat := host.Container().Catalog(); cat != nil {
		return Classify(cat, t.Name)
	}
	return 0
}

func (o options) resolved(name string, t finder.Type) {
	if o.observer != nil {
		o.observer.TypeResolved(name, t)
	}
}
