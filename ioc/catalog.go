package ioc

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

var errorType = reflect.TypeFor[error]()

// Entry is a constructible type known to a Catalog.
type Entry struct {
	// Name is the fully-qualified name, namespace separator '\'.
	Name string
	// Type is the type produced by the constructor.
	Type reflect.Type

	ctor reflect.Value
}

// Implements reports whether values built by e satisfy iface.
func (e *Entry) Implements(iface reflect.Type) bool {
	if iface == nil || iface.Kind() != reflect.Interface {
		return false
	}
	return e.Type.Implements(iface)
}

// Params returns the parameter types of the constructor.
func (e *Entry) Params() []reflect.Type {
	t := e.ctor.Type()
	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}
	return params
}

// Catalog maps fully-qualified names and type keys to constructors.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*Entry
	byFold map[string]*Entry
	byType map[string]*Entry
}

// Types is the process default catalog. Component packages register into it
// from init functions.
var Types = NewCatalog()

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*Entry),
		byFold: make(map[string]*Entry),
		byType: make(map[string]*Entry),
	}
}

// Register adds a constructor under name. ctor must be a non-variadic func
// returning T or (T, error). Registering a name twice replaces the entry.
func (c *Catalog) Register(name string, ctor any) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("ioc: catalog: empty name")
	}

	v := reflect.ValueOf(ctor)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("ioc: catalog: %s: constructor must be a func, got %T", name, ctor)
	}

	t := v.Type()
	if t.IsVariadic() {
		return fmt.Errorf("ioc: catalog: %s: variadic constructors are not supported", name)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("ioc: catalog: %s: second result must be error", name)
		}
	default:
		return fmt.Errorf("ioc: catalog: %s: constructor must return T or (T, error)", name)
	}

	entry := &Entry{Name: name, Type: t.Out(0), ctor: v}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.byName[name] = entry
	c.byFold[strings.ToLower(name)] = entry
	c.byType[TypeKey(entry.Type)] = entry
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(name string, ctor any) {
	if err := c.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Lookup finds an entry by fully-qualified name, type key, or
// case-insensitive name, in that order.
func (c *Catalog) Lookup(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := NormalizeName(key)
	if e, ok := c.byName[name]; ok {
		return e, true
	}
	if e, ok := c.byType[key]; ok {
		return e, true
	}
	e, ok := c.byFold[strings.ToLower(name)]
	return e, ok
}

// Names returns all registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

// Register adds a constructor to the default catalog and panics on error.
func Register(name string, ctor any) {
	Types.MustRegister(name, ctor)
}
