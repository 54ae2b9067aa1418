package resolver

import (
	"fmt"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/model"
)

// ErrNoSchema is returned when a model is resolved by a host without a
// schema registry.
var ErrNoSchema = errors.Configuration("schema registry is not configured")

// Model resolves discovered models, pushes their declarations into the host
// schema registry and wires their activation lifecycle.
type Model struct {
	options

	host   Host
	finder finder.Finder
	region RegionFilter
}

// NewModel creates the model resolver. A nil filter grants every region.
func NewModel(host Host, f finder.Finder, region RegionFilter, opts ...Option) *Model {
	if region == nil {
		region = AllGranted{}
	}
	return &Model{
		options: newOptions(opts),
		host:    host,
		finder:  f,
		region:  region,
	}
}

func (r *Model) Name() string {
	return "model"
}

func (r *Model) Resolve() error {
	types, err := r.finder.Find()
	if err != nil {
		return err
	}

	c := r.host.Container()
	for _, t := range types {
		if t.Component == "" || !r.region.Filter(t.Region, r.host) {
			continue
		}
		if !r.capabilities(r.host, t).Has(finder.CapModel) {
			continue
		}

		c.SingletonIf(t.Name)
		obj, err := c.Make(t.Name)
		if err != nil {
			return err
		}
		m, ok := obj.(model.Model)
		if !ok {
			return ErrCapability.With("type", t.Name).With("capability", "model")
		}

		if err := r.register(m); err != nil {
			return fmt.Errorf("resolver: register %s: %w", t.Name, err)
		}
		if ad, ok := m.(model.ActivationDeactivation); ok {
			r.lifecycle(ad)
		}

		log.Debug().
			Str("component", "resolver").
			Str("resolver", r.Name()).
			Str("type", t.Name).
			Msg("model resolved")
		r.resolved(r.Name(), t)
	}
	return nil
}

func (r *Model) register(m model.Model) error {
	switch holder := m.(type) {
	case model.MetaHolder:
		reg := r.host.Schema()
		if reg == nil {
			return ErrNoSchema
		}
		if err := holder.RegisterFields(reg); err != nil {
			return err
		}
		if post, ok := m.(model.PostModel); ok {
			return post.RegisterPostType(reg)
		}
		if tax, ok := m.(model.TaxonomyModel); ok {
			return tax.RegisterTaxonomy(reg)
		}
	case model.OptionHolder:
		reg := r.host.Schema()
		if reg == nil {
			return ErrNoSchema
		}
		return holder.RegisterFields(reg)
	}
	return nil
}

func (r *Model) lifecycle(ad model.ActivationDeactivation) {
	bus := r.host.Bus()
	basename := r.host.Basename()
	priority := r.host.DefaultPriority()

	setup := func(...any) (any, error) { return nil, ad.ActivationSetup() }
	cleanup := func(...any) (any, error) { return nil, ad.DeactivationCleanup() }

	bus.AddAction(hook.ActivateTag(basename), event.Callback(setup), priority, 1)
	bus.AddAction(hook.DeactivateTag(basename), event.Callback(cleanup), priority, 1)
}
