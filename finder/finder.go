// Package finder discovers component types by source-tree convention.
//
// A component lives at {region}/{component}/{context}/.../Name.ext or
// {component}/{context}/.../Name.ext below a registered root. The
// region, component and context segments are recorded alongside the
// fully-qualified name derived from the namespace and the path.
package finder

import (
	"strings"
)

// Capability is a set of roles a discovered type can play.
type Capability uint16

const (
	CapInitiator Capability = 1 << iota
	CapModel
	CapMetaHolder
	CapOptionHolder
	CapPostModel
	CapTaxonomyModel
	CapActivationDeactivation
	CapDispatchable
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapInitiator, "initiator"},
	{CapModel, "model"},
	{CapMetaHolder, "meta_holder"},
	{CapOptionHolder, "option_holder"},
	{CapPostModel, "post_model"},
	{CapTaxonomyModel, "taxonomy_model"},
	{CapActivationDeactivation, "activation_deactivation"},
	{CapDispatchable, "dispatchable"},
}

// Has reports whether every bit of o is set in c.
func (c Capability) Has(o Capability) bool {
	return o != 0 && c&o == o
}

// Names returns the names of the set bits.
func (c Capability) Names() []string {
	names := make([]string, 0, len(capabilityNames))
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}

// Type is a discovered component type.
type Type struct {
	Region    string     `json:"region"`
	Component string     `json:"component"`
	Context   string     `json:"context"`
	Path      string     `json:"path,omitempty"`
	Name      string     `json:"name"`
	Caps      Capability `json:"-"`
}

// Finder produces the discovered types.
type Finder interface {
	Find() ([]Type, error)
}

// Classifier computes the capabilities of a fully-qualified type name.
type Classifier interface {
	Classify(name string) Capability
}

// ClassifierFunc adapts a func to Classifier.
type ClassifierFunc func(name string) Capability

func (f ClassifierFunc) Classify(name string) Capability {
	return f(name)
}

// ComponentOf maps a capability set onto the role name used in source trees.
func ComponentOf(caps Capability) string {
	switch {
	case caps.Has(CapInitiator):
		return "Initiator"
	case caps.Has(CapModel):
		return "Model"
	default:
		return ""
	}
}
