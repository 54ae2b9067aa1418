package resolver

import (
	"fmt"

	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/log"
)

// Initiator resolves discovered hook initiators and runs their InitHooks.
type Initiator struct {
	options

	host    Host
	finder  finder.Finder
	region  RegionFilter
	context ContextFilter
}

// NewInitiator creates the initiator resolver. Nil filters grant everything.
func NewInitiator(host Host, f finder.Finder, region RegionFilter, context ContextFilter, opts ...Option) *Initiator {
	if region == nil {
		region = AllGranted{}
	}
	if context == nil {
		context = AllGranted{}
	}
	return &Initiator{
		options: newOptions(opts),
		host:    host,
		finder:  f,
		region:  region,
		context: context,
	}
}

func (r *Initiator) Name() string {
	return "initiator"
}

func (r *Initiator) Resolve() error {
	types, err := r.finder.Find()
	if err != nil {
		return err
	}

	c := r.host.Container()
	for _, t := range types {
		if t.Component == "" {
			continue
		}
		if !r.region.Filter(t.Region, r.host) || !r.context.Filter(t.Context, r.host) {
			continue
		}
		if !r.capabilities(r.host, t).Has(finder.CapInitiator) {
			continue
		}

		c.SingletonIf(t.Name)
		obj, err := c.Make(t.Name)
		if err != nil {
			return err
		}

		initiator, ok := obj.(hook.Initiator)
		if !ok {
			return ErrCapability.With("type", t.Name).With("capability", "initiator")
		}
		if err := initiator.InitHooks(r.host); err != nil {
			return fmt.Errorf("resolver: init hooks of %s: %w", t.Name, err)
		}

		log.Debug().
			Str("component", "resolver").
			Str("resolver", r.Name()).
			Str("type", t.Name).
			Str("context", t.Context).
			Msg("initiator resolved")
		r.resolved(r.Name(), t)
	}
	return nil
}
