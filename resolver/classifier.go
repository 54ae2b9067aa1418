package resolver

import (
	"reflect"

	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/model"
)

var capabilityTypes = []struct {
	cap   finder.Capability
	iface reflect.Type
}{
	{finder.CapInitiator, reflect.TypeFor[hook.Initiator]()},
	{finder.CapModel, reflect.TypeFor[model.Model]()},
	{finder.CapMetaHolder, reflect.TypeFor[model.MetaHolder]()},
	{finder.CapOptionHolder, reflect.TypeFor[model.OptionHolder]()},
	{finder.CapPostModel, reflect.TypeFor[model.PostModel]()},
	{finder.CapTaxonomyModel, reflect.TypeFor[model.TaxonomyModel]()},
	{finder.CapActivationDeactivation, reflect.TypeFor[model.ActivationDeactivation]()},
	{finder.CapDispatchable, reflect.TypeFor[hook.Dispatchable]()},
}

// Capabilities returns the roles values of t can play.
func Capabilities(t reflect.Type) finder.Capability {
	var caps finder.Capability
	if t == nil {
		return caps
	}
	for _, ct := range capabilityTypes {
		if t.Implements(ct.iface) {
			caps |= ct.cap
		}
	}
	return caps
}

// Classify returns the capabilities of the catalog entry registered under
// name, or zero when name is unknown.
func Classify(cat *ioc.Catalog, name string) finder.Capability {
	entry, ok := cat.Lookup(name)
	if !ok {
		return 0
	}
	return Capabilities(entry.Type)
}

// CatalogClassifier classifies discovered names against cat.
func CatalogClassifier(cat *ioc.Catalog) finder.Classifier {
	return finder.ClassifierFunc(func(name string) finder.Capability {
		return Classify(cat, name)
	})
}
