package ioc

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/kochabx/axis/log"
)

// Params carries extra parameters for Make. Constructor parameters are
// matched against it by type key before the container is consulted.
type Params map[string]any

// Factory builds the value bound to a key.
type Factory func(c *Container, params Params) (any, error)

type binding struct {
	factory  Factory
	shared   bool
	instance bool
}

var (
	containerType = reflect.TypeFor[*Container]()
	paramsType    = reflect.TypeFor[Params]()
)

// Container maps keys to factories with shared or transient lifetime.
//
// A Container is populated and resolved during startup by a single goroutine.
// Afterwards concurrent Make calls are safe only for shared keys whose
// instance is already cached. The set of keys being built is container-wide,
// so two goroutines building the same uncached key at once make the second
// one fail with ErrCircularDependency.
type Container struct {
	mu        sync.RWMutex
	bindings  map[string]*binding
	instances map[string]any
	aliases   map[string]string
	resolved  map[string]bool
	building  map[string]struct{}
	catalog   *Catalog
	verbose   bool
}

// Option configures a Container.
type Option func(*Container)

// WithCatalog sets the catalog used for constructor-based auto-resolution.
// Defaults to Types.
func WithCatalog(catalog *Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// WithVerbose controls whether binding and resolution activity is logged.
func WithVerbose(enabled bool) Option {
	return func(c *Container) {
		c.verbose = enabled
	}
}

// New creates a container.
func New(opts ...Option) *Container {
	c := &Container{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		aliases:   make(map[string]string),
		resolved:  make(map[string]bool),
		building:  make(map[string]struct{}),
		catalog:   Types,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Container) logf(format string, args ...any) {
	if c.verbose {
		log.Infof(format, args...)
	}
}

// Catalog returns the catalog used for auto-resolution.
func (c *Container) Catalog() *Catalog {
	return c.catalog
}

// Bind registers factory under key. A nil factory builds key itself from the
// catalog. Binding an already bound key replaces it and drops any cached
// instance: the last write wins.
func (c *Container) Bind(key string, factory Factory, shared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindLocked(key, factory, shared)
}

func (c *Container) bindLocked(key string, factory Factory, shared bool) {
	delete(c.instances, key)
	delete(c.aliases, key)
	c.bindings[key] = &binding{factory: factory, shared: shared}
	c.logf("[ioc] bound %s (shared: %t)", key, shared)
}

// BindIf binds key only if it is not bound yet and reports whether it did.
func (c *Container) BindIf(key string, factory Factory, shared bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.boundLocked(key) {
		return false
	}
	c.bindLocked(key, factory, shared)
	return true
}

// Singleton binds factory under key as shared.
func (c *Container) Singleton(key string, factory Factory) {
	c.Bind(key, factory, true)
}

// SingletonIf binds key to its own catalog constructor as shared, only if
// key is unbound.
func (c *Container) SingletonIf(key string) bool {
	return c.BindIf(key, nil, true)
}

// Instance registers a pre-built value as a shared binding.
func (c *Container) Instance(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.aliases, key)
	c.bindings[key] = &binding{shared: true, instance: true}
	c.instances[key] = value
	c.resolved[key] = true
	c.logf("[ioc] registered instance %s (%T)", key, value)
}

// Alias makes name resolve to key.
func (c *Container) Alias(key, name string) error {
	if key == name {
		return fmt.Errorf("ioc: %s is aliased to itself", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.aliases[name] = key
	c.logf("[ioc] aliased %s to %s", name, key)
	return nil
}

// Bound reports whether key is bound, has an instance or is an alias.
func (c *Container) Bound(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boundLocked(key)
}

func (c *Container) boundLocked(key string) bool {
	if _, ok := c.bindings[key]; ok {
		return true
	}
	if _, ok := c.instances[key]; ok {
		return true
	}
	_, ok := c.aliases[key]
	return ok
}

// Resolved reports whether key has been built at least once.
func (c *Container) Resolved(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved[c.canonicalLocked(key)]
}

// Keys returns all bound keys and aliases, sorted.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.bindings)+len(c.aliases))
	for k := range c.bindings {
		keys = append(keys, k)
	}
	for k := range c.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Container) canonicalLocked(key string) string {
	seen := 0
	for {
		target, ok := c.aliases[key]
		if !ok || seen > len(c.aliases) {
			return key
		}
		key = target
		seen++
	}
}

// Make resolves key. Shared bindings are built once and cached; unbound keys
// are built from the catalog with their constructor dependencies resolved
// by type. Non-empty params always build a fresh instance that is neither
// taken from nor stored in the shared cache, except for values registered
// with Instance.
func (c *Container) Make(key string, params ...Params) (any, error) {
	p := mergeParams(params)
	fresh := len(p) > 0

	c.mu.Lock()
	key = c.canonicalLocked(key)
	b := c.bindings[key]
	if inst, ok := c.instances[key]; ok && (!fresh || (b != nil && b.instance)) {
		c.mu.Unlock()
		return inst, nil
	}
	if _, ok := c.building[key]; ok {
		c.mu.Unlock()
		return nil, ErrCircularDependency.With("key", key)
	}
	c.building[key] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.building, key)
		c.mu.Unlock()
	}()

	var (
		obj any
		err error
	)
	if b != nil && b.factory != nil {
		obj, err = b.factory(c, p)
		if err != nil {
			return nil, fmt.Errorf("ioc: make %s: %w", key, err)
		}
	} else {
		obj, err = c.build(key, p)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resolved[key] = true
	if b != nil && b.shared && !fresh {
		// A nested Make may have cached the same key already.
		if inst, ok := c.instances[key]; ok {
			return inst, nil
		}
		c.instances[key] = obj
	}
	return obj, nil
}

func (c *Container) build(key string, params Params) (any, error) {
	if c.catalog == nil {
		return nil, ErrBindingResolution.With("key", key)
	}

	entry, ok := c.catalog.Lookup(key)
	if !ok {
		return nil, ErrBindingResolution.With("key", key)
	}

	ctorType := entry.ctor.Type()
	args := make([]reflect.Value, ctorType.NumIn())
	for i := range args {
		arg, err := c.argument(ctorType.In(i), params)
		if err != nil {
			return nil, ErrBindingResolution.
				With("key", key).
				With("parameter", TypeKey(ctorType.In(i))).
				WithCause(err)
		}
		args[i] = arg
	}

	out := entry.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("ioc: construct %s: %w", key, out[1].Interface().(error))
	}

	c.logf("[ioc] built %s", key)
	return out[0].Interface(), nil
}

func (c *Container) argument(t reflect.Type, params Params) (reflect.Value, error) {
	switch t {
	case containerType:
		return reflect.ValueOf(c), nil
	case paramsType:
		return reflect.ValueOf(params), nil
	}

	tk := TypeKey(t)
	if v, ok := params[tk]; ok {
		return assignable(v, t)
	}

	dep, err := c.Make(tk)
	if err != nil {
		return reflect.Value{}, err
	}
	return assignable(dep, t)
}

func assignable(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", v, t)
	}
	return rv, nil
}

func mergeParams(params []Params) Params {
	switch len(params) {
	case 0:
		return Params{}
	case 1:
		if params[0] == nil {
			return Params{}
		}
		return params[0]
	}

	merged := Params{}
	for _, p := range params {
		for k, v := range p {
			merged[k] = v
		}
	}
	return merged
}

// MakeAs resolves key and asserts the result to T.
func MakeAs[T any](c *Container, key string, params ...Params) (T, error) {
	var zero T

	obj, err := c.Make(key, params...)
	if err != nil {
		return zero, err
	}

	v, ok := obj.(T)
	if !ok {
		return zero, ErrBindingResolution.
			With("key", key).
			WithCause(fmt.Errorf("%T is not %s", obj, KeyOf[T]()))
	}
	return v, nil
}

// Resolve resolves the type key of T.
func Resolve[T any](c *Container, params ...Params) (T, error) {
	return MakeAs[T](c, KeyOf[T](), params...)
}
