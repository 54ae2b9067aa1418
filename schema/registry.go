// Package schema records the meta, option, post type and taxonomy
// declarations of model components.
//
// Declarations are pushed into a Registry and read back explicitly; a
// Registry never shares mutable state with the caller.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kochabx/axis/errors"
)

// Kind is the declaration category.
type Kind string

const (
	KindMeta     Kind = "meta"
	KindOption   Kind = "option"
	KindPostType Kind = "post_type"
	KindTaxonomy Kind = "taxonomy"
)

// Args are free-form registration arguments.
type Args map[string]any

// Declaration is one registered schema item. Scope is the meta object type,
// the option group, or the comma separated taxonomy object types. Subtype
// narrows a meta declaration to one post type or taxonomy.
type Declaration struct {
	Kind        Kind     `json:"kind" validate:"required,oneof=meta option post_type taxonomy"`
	Scope       string   `json:"scope,omitempty"`
	Subtype     string   `json:"subtype,omitempty" validate:"max=64"`
	Name        string   `json:"name" validate:"required,max=191"`
	Field       *Field   `json:"field,omitempty"`
	ObjectTypes []string `json:"object_types,omitempty"`
	Args        Args     `json:"args,omitempty"`
}

func (d Declaration) key() string {
	return string(d.Kind) + "\x00" + d.Scope + "\x00" + d.Subtype + "\x00" + d.Name
}

func (d Declaration) clone() Declaration {
	c := d
	if d.Field != nil {
		f := *d.Field
		c.Field = &f
	}
	c.ObjectTypes = slices.Clone(d.ObjectTypes)
	c.Args = maps.Clone(d.Args)
	return c
}

// Registry accepts declarations from model components. Meta fields are
// keyed by object type, subtype and key, so two post types may declare the
// same key.
type Registry interface {
	RegisterMeta(objectType, subtype string, f Field) error
	RegisterOption(group string, f Field) error
	RegisterPostType(name string, args Args) error
	RegisterTaxonomy(name string, objectTypes []string, args Args) error
	Declarations(kind Kind) ([]Declaration, error)
}

// ErrInvalidDeclaration is returned for declarations that fail validation.
var ErrInvalidDeclaration = errors.Configuration("invalid schema declaration")

// Post type and taxonomy names follow the host platform limits.
const (
	maxPostTypeLength = 20
	maxTaxonomyLength = 32
)

func metaDeclaration(objectType, subtype string, f Field) (Declaration, error) {
	if objectType == "" {
		objectType = "post"
	}
	d := Declaration{Kind: KindMeta, Scope: objectType, Subtype: subtype, Name: f.Key, Field: &f}
	return d, validateField(d)
}

func optionDeclaration(group string, f Field) (Declaration, error) {
	d := Declaration{Kind: KindOption, Scope: group, Name: f.Key, Field: &f}
	return d, validateField(d)
}

func validateField(d Declaration) error {
	if err := validateDeclaration(d); err != nil {
		return err
	}
	if err := d.Field.validateRules(); err != nil {
		return ErrInvalidDeclaration.
			With("kind", string(d.Kind)).
			With("name", d.Name).
			With("rules", d.Field.Rules).
			WithCause(err)
	}
	return nil
}

func postTypeDeclaration(name string, args Args) (Declaration, error) {
	d := Declaration{Kind: KindPostType, Name: name, Args: args}
	if err := validateDeclaration(d); err != nil {
		return d, err
	}
	if err := Validator().Var(name, fmt.Sprintf("max=%d", maxPostTypeLength)); err != nil {
		return d, ErrInvalidDeclaration.With("name", name).WithCause(Translate(err))
	}
	return d, nil
}

func taxonomyDeclaration(name string, objectTypes []string, args Args) (Declaration, error) {
	d := Declaration{
		Kind:        KindTaxonomy,
		Scope:       strings.Join(objectTypes, ","),
		Name:        name,
		ObjectTypes: objectTypes,
		Args:        args,
	}
	if err := validateDeclaration(d); err != nil {
		return d, err
	}
	if err := Validator().Var(name, fmt.Sprintf("max=%d", maxTaxonomyLength)); err != nil {
		return d, ErrInvalidDeclaration.With("name", name).WithCause(Translate(err))
	}
	return d, nil
}

func validateDeclaration(d Declaration) error {
	if err := Validator().Struct(d); err != nil {
		return ErrInvalidDeclaration.With("kind", string(d.Kind)).With("name", d.Name).WithCause(Translate(err))
	}
	return nil
}

// Memory is an in-process Registry.
type Memory struct {
	mu    sync.RWMutex
	items []Declaration
	index map[string]int
}

// NewMemory creates an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

func (m *Memory) put(d Declaration, err error) error {
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d = d.clone()
	if i, ok := m.index[d.key()]; ok {
		m.items[i] = d
		return nil
	}
	m.index[d.key()] = len(m.items)
	m.items = append(m.items, d)
	return nil
}

func (m *Memory) RegisterMeta(objectType, subtype string, f Field) error {
	return m.put(metaDeclaration(objectType, subtype, f))
}

func (m *Memory) RegisterOption(group string, f Field) error {
	return m.put(optionDeclaration(group, f))
}

func (m *Memory) RegisterPostType(name string, args Args) error {
	return m.put(postTypeDeclaration(name, args))
}

func (m *Memory) RegisterTaxonomy(name string, objectTypes []string, args Args) error {
	return m.put(taxonomyDeclaration(name, objectTypes, args))
}

// Declarations returns copies of the declarations of kind in registration
// order. An empty kind returns all of them.
func (m *Memory) Declarations(kind Kind) ([]Declaration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Declaration
	for _, d := range m.items {
		if kind == "" || d.Kind == kind {
			result = append(result, d.clone())
		}
	}
	return result, nil
}
