// Package model defines the storage-backed component capabilities resolved
// by the model resolver.
package model

import (
	"github.com/kochabx/axis/schema"
)

// Model marks a storage-backed component.
type Model interface {
	IsModel()
}

// MetaHolder declares meta fields on an object type.
type MetaHolder interface {
	Model
	MetaObjectType() string
	RegisterFields(reg schema.Registry) error
}

// OptionHolder declares option fields in a group.
type OptionHolder interface {
	Model
	OptionGroup() string
	RegisterFields(reg schema.Registry) error
}

// PostModel is a meta holder that also declares a post type.
type PostModel interface {
	MetaHolder
	PostType() string
	RegisterPostType(reg schema.Registry) error
}

// TaxonomyModel is a meta holder that also declares a taxonomy.
type TaxonomyModel interface {
	MetaHolder
	Taxonomy() string
	RegisterTaxonomy(reg schema.Registry) error
}

// ActivationDeactivation is run on the plugin activate and deactivate events.
type ActivationDeactivation interface {
	ActivationSetup() error
	DeactivationCleanup() error
}
