package model

import (
	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/schema"
)

// ErrUnknownField is returned by Sanitize for keys that were never declared.
var ErrUnknownField = errors.Verification("unknown field")

// Base implements Model.
type Base struct{}

func (Base) IsModel() {}

type fields []schema.Field

func (fs fields) find(key string) (schema.Field, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f, true
		}
	}
	return schema.Field{}, false
}

func (fs fields) sanitize(key string, v any) (any, error) {
	f, ok := fs.find(key)
	if !ok {
		return v, ErrUnknownField.With("key", key)
	}
	return f.Sanitize(v)
}

// MetaBase implements MetaHolder over a static field list.
type MetaBase struct {
	Base
	// ObjectType defaults to "post".
	ObjectType string
	Fields     []schema.Field
}

func (m *MetaBase) MetaObjectType() string {
	if m.ObjectType == "" {
		return "post"
	}
	return m.ObjectType
}

func (m *MetaBase) RegisterFields(reg schema.Registry) error {
	return m.registerFields(reg, m.MetaObjectType(), "")
}

func (m *MetaBase) registerFields(reg schema.Registry, objectType, subtype string) error {
	for _, f := range m.Fields {
		if err := reg.RegisterMeta(objectType, subtype, f); err != nil {
			return err
		}
	}
	return nil
}

// Field returns the declared field for key.
func (m *MetaBase) Field(key string) (schema.Field, bool) {
	return fields(m.Fields).find(key)
}

// Sanitize checks v against the field declared for key.
func (m *MetaBase) Sanitize(key string, v any) (any, error) {
	return fields(m.Fields).sanitize(key, v)
}

// OptionBase implements OptionHolder over a static field list.
type OptionBase struct {
	Base
	Group  string
	Fields []schema.Field
}

func (o *OptionBase) OptionGroup() string {
	return o.Group
}

func (o *OptionBase) RegisterFields(reg schema.Registry) error {
	for _, f := range o.Fields {
		if err := reg.RegisterOption(o.Group, f); err != nil {
			return err
		}
	}
	return nil
}

// Field returns the declared field for key.
func (o *OptionBase) Field(key string) (schema.Field, bool) {
	return fields(o.Fields).find(key)
}

// Sanitize checks v against the field declared for key.
func (o *OptionBase) Sanitize(key string, v any) (any, error) {
	return fields(o.Fields).sanitize(key, v)
}

// PostBase implements PostModel.
type PostBase struct {
	MetaBase
	Name string
	Args schema.Args
}

func (p *PostBase) PostType() string {
	return p.Name
}

// RegisterFields registers the meta fields under the post type, so another
// post type may reuse the same keys.
func (p *PostBase) RegisterFields(reg schema.Registry) error {
	return p.registerFields(reg, p.MetaObjectType(), p.Name)
}

func (p *PostBase) RegisterPostType(reg schema.Registry) error {
	return reg.RegisterPostType(p.Name, p.Args)
}

// TaxonomyBase implements TaxonomyModel. Its meta fields are term meta.
type TaxonomyBase struct {
	MetaBase
	Name        string
	ObjectTypes []string
	Args        schema.Args
}

func (t *TaxonomyBase) MetaObjectType() string {
	if t.ObjectType == "" {
		return "term"
	}
	return t.ObjectType
}

func (t *TaxonomyBase) RegisterFields(reg schema.Registry) error {
	return t.registerFields(reg, t.MetaObjectType(), t.Name)
}

func (t *TaxonomyBase) Taxonomy() string {
	return t.Name
}

func (t *TaxonomyBase) RegisterTaxonomy(reg schema.Registry) error {
	return reg.RegisterTaxonomy(t.Name, t.ObjectTypes, t.Args)
}
