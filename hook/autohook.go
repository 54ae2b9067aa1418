// Package hook derives event bus registrations from declaration names.
//
// A component embeds AutoHook and declares hook methods whose names follow
// a small grammar:
//
//	Action_init                 bus.AddAction("init", cb, default, 1)
//	Filter_10_query_var         bus.AddFilter("query_var", cb, 10, 1)
//	Action_10_3_save_post       bus.AddAction("save_post", cb, 10, 3)
//	Command_my_code             bus.AddCommand("my_code", cb)
//	Activation                  bus.AddAction("activate_<basename>", cb, default, 1)
//	Deactivation_20             bus.AddAction("deactivate_<basename>", cb, 20, 1)
//
// A leading V_ marks a virtual declaration: the method is called once and
// returns the real callback. A trailing __name applies the named directive.
// Components that prefer explicit declarations implement Tabler instead.
package hook

import (
	"reflect"
	"sync"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/ioc"
	"github.com/kochabx/axis/log"
)

// Host is what a component needs from its starter to register hooks.
type Host interface {
	Container() *ioc.Container
	Bus() event.Bus
	DefaultPriority() int
	Basename() string
	StrictCallbacks() bool
}

// Observer is optionally implemented by a Host to see every registration.
type Observer interface {
	HookRegistered(owner string, d Descriptor)
}

// Initiator is a component that registers hooks.
type Initiator interface {
	InitHooks(host Host) error
}

// Entry is one explicit declaration: a grammar name and its function.
type Entry struct {
	Name string
	Fn   any
}

// Table is an explicit declaration list.
type Table []Entry

// Tabler is implemented by components declaring hooks with a Table instead
// of method names.
type Tabler interface {
	HookTable() Table
}

// ErrInvalidDeclaration is returned for table entries that match no grammar.
var ErrInvalidDeclaration = errors.HookDeclaration("declaration matches no hook grammar")

// ErrEmptyTag is returned when a replacement leaves a hook without a tag.
var ErrEmptyTag = errors.HookDeclaration("empty tag")

var ignoredMethods = map[string]struct{}{
	"AddReplacement":     {},
	"AddReplacementFunc": {},
	"DefaultPriority":    {},
	"Descriptors":        {},
	"HookTable":          {},
	"Init":               {},
	"InitHooks":          {},
}

type replacement struct {
	to string
	fn func(search, method string) string
}

// AutoHook implements name based hook registration for the embedding type.
type AutoHook struct {
	mu              sync.Mutex
	replacements    map[string]replacement
	defaultPriority int
	descriptors     []Descriptor
	initialized     bool
}

// AddReplacement makes a declaration whose extracted tag equals search
// subscribe to to instead. An empty to is ignored.
func (a *AutoHook) AddReplacement(search, to string) {
	if to == "" {
		return
	}
	a.setReplacement(search, replacement{to: to})
}

// AddReplacementFunc computes the tag of declarations whose extracted tag
// equals search. fn receives the extracted tag and the declaration name.
func (a *AutoHook) AddReplacementFunc(search string, fn func(search, method string) string) {
	if fn == nil {
		return
	}
	a.setReplacement(search, replacement{fn: fn})
}

func (a *AutoHook) setReplacement(search string, r replacement) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.replacements == nil {
		a.replacements = make(map[string]replacement)
	}
	a.replacements[search] = r
}

func (a *AutoHook) replace(search, method string) string {
	a.mu.Lock()
	r, ok := a.replacements[search]
	a.mu.Unlock()

	switch {
	case !ok:
		return search
	case r.fn != nil:
		return r.fn(search, method)
	default:
		return r.to
	}
}

// DefaultPriority returns the priority captured by Init.
func (a *AutoHook) DefaultPriority() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.defaultPriority
}

// Descriptors returns the registrations made by Init.
func (a *AutoHook) Descriptors() []Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]Descriptor, len(a.descriptors))
	copy(result, a.descriptors)
	return result
}

// Init collects the declarations of self, the value embedding a, and
// registers them on the host bus. It runs once; later calls are no-ops.
func (a *AutoHook) Init(host Host, self any) error {
	a.mu.Lock()
	if a.initialized {
		a.mu.Unlock()
		return nil
	}
	a.defaultPriority = host.DefaultPriority()
	a.mu.Unlock()

	descriptors, err := a.collect(host, self)
	if err != nil {
		return err
	}

	owner := ownerName(self)
	observer, _ := host.(Observer)
	bus := host.Bus()

	registered := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		d = register(bus, d)
		if err := handleDirective(bus, d); err != nil {
			return err
		}
		if observer != nil {
			observer.HookRegistered(owner, d)
		}
		registered = append(registered, d)
	}

	a.mu.Lock()
	a.descriptors = registered
	a.initialized = true
	a.mu.Unlock()

	log.Debug().
		Str("component", "hook").
		Str("owner", owner).
		Int("hooks", len(registered)).
		Msg("hooks registered")

	return nil
}

func handleDirective(bus event.Bus, d Descriptor) error {
	if d.Directive == "" {
		return nil
	}

	fn, ok := LookupDirective(d.Directive)
	if !ok {
		log.Debug().Str("component", "hook").Str("directive", d.Directive).Msg("unknown directive")
		return nil
	}

	if err := fn(bus, d.Operation, d); err != nil {
		return errors.HookDeclaration("directive failed").
			With("directive", d.Directive).
			With("method", d.Method).
			WithCause(err)
	}
	return nil
}

type declaration struct {
	name string
	fn   any
}

func (a *AutoHook) collect(host Host, self any) ([]Descriptor, error) {
	if self == nil {
		return nil, errors.HookDeclaration("nil component")
	}

	decls, strictNames, err := declarations(self)
	if err != nil {
		return nil, err
	}

	var result []Descriptor
	for _, decl := range decls {
		m, ok := Parse(Normalize(decl.name))
		if !ok {
			if strictNames && Eligible(decl.name) {
				return nil, ErrInvalidDeclaration.With("method", decl.name)
			}
			log.Debug().Str("component", "hook").Str("method", decl.name).Msg("not a hook declaration")
			continue
		}

		d, err := a.describe(host, decl, m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// declarations returns the declared names and functions of self, and
// whether names that match no grammar are errors.
func declarations(self any) ([]declaration, bool, error) {
	if t, ok := self.(Tabler); ok {
		table := t.HookTable()
		decls := make([]declaration, 0, len(table))
		for _, e := range table {
			if e.Fn == nil {
				return nil, true, ErrInvalidDeclaration.With("method", e.Name).With("reason", "nil function")
			}
			decls = append(decls, declaration{name: e.Name, fn: e.Fn})
		}
		return decls, true, nil
	}

	v := reflect.ValueOf(self)
	t := v.Type()
	decls := make([]declaration, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		name := t.Method(i).Name
		if _, ignored := ignoredMethods[name]; ignored {
			continue
		}
		decls = append(decls, declaration{name: name, fn: v.Method(i).Interface()})
	}
	return decls, false, nil
}

func (a *AutoHook) describe(host Host, decl declaration, m Match) (Descriptor, error) {
	d := Descriptor{
		Operation: m.Operation,
		Directive: m.Directive,
		Method:    decl.name,
		Virtual:   m.Virtual,
	}

	switch m.Operation {
	case OpAction, OpFilter:
		d.Tag = a.replace(m.Tag, decl.name)
		d.Priority = a.defaultPriority
		if m.HasPriority {
			d.Priority = m.Priority
		}
		d.AcceptedArgs = 1
		if m.HasAcceptedArgs {
			d.AcceptedArgs = m.AcceptedArgs
		}
	case OpCommand:
		d.Tag = a.replace(m.Tag, decl.name)
	case OpActivation, OpDeactivation:
		d.Tag = ActivateTag(host.Basename())
		if m.Operation == OpDeactivation {
			d.Tag = DeactivateTag(host.Basename())
		}
		d.Priority = a.defaultPriority
		if m.HasPriority {
			d.Priority = m.Priority
		}
		d.AcceptedArgs = 1
	}

	if d.Tag == "" {
		return Descriptor{}, ErrEmptyTag.With("method", decl.name)
	}

	cb, err := a.callback(host, decl, m.Virtual)
	if err != nil {
		return Descriptor{}, err
	}
	d.Callback = cb
	return d, nil
}

func (a *AutoHook) callback(host Host, decl declaration, virtual bool) (event.Callback, error) {
	direct, err := event.Adapt(decl.fn)
	if err != nil {
		return nil, errors.HookDeclaration("declaration is not callable").
			With("method", decl.name).
			WithCause(err)
	}
	if !virtual {
		return direct, nil
	}

	raw, err := direct()
	if err != nil {
		return nil, errors.HookDeclaration("virtual declaration failed").
			With("method", decl.name).
			WithCause(err)
	}

	cb, err := ResolveVirtual(host.Container(), raw)
	if err == nil {
		return cb, nil
	}
	if host.StrictCallbacks() {
		return nil, errors.HookDeclaration("virtual callback resolution failed").
			With("method", decl.name).
			WithCause(err)
	}

	log.Warn().
		Err(err).
		Str("component", "hook").
		Str("method", decl.name).
		Msg("virtual callback unresolved, using raw value")

	if fallback, adaptErr := event.Adapt(raw); adaptErr == nil {
		return fallback, nil
	}
	return uninvocable(decl.name, raw), nil
}

func ownerName(self any) string {
	return ioc.TypeKey(reflect.TypeOf(self))
}
