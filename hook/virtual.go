package hook

import (
	"fmt"
	"reflect"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/ioc"
)

// Dispatchable is a type with a single dispatch entry point. Virtual
// callbacks naming a Dispatchable type are bound to Dispatch.
type Dispatchable interface {
	Dispatch(args ...any) (any, error)
}

// Indirect defers a callback to a method of a container-resolved value.
type Indirect struct {
	Key    string
	Method string
	Params ioc.Params
}

// Via returns an Indirect for key and method. The optional params are passed
// to the container when key is built.
func Via(key, method string, params ...ioc.Params) Indirect {
	in := Indirect{Key: key, Method: method}
	if len(params) > 0 {
		in.Params = params[0]
	}
	return in
}

// ErrVirtualCallback is returned when a virtual declaration does not yield
// an invocable value.
var ErrVirtualCallback = errors.HookDeclaration("virtual callback is not invocable")

// ResolveVirtual turns the value returned by a virtual declaration into a
// callback. The caller decides whether a failure is fatal.
func ResolveVirtual(c *ioc.Container, raw any) (event.Callback, error) {
	switch v := raw.(type) {
	case Indirect:
		return resolveIndirect(c, v)
	case *Indirect:
		if v == nil {
			return nil, ErrVirtualCallback.With("value", "nil")
		}
		return resolveIndirect(c, *v)
	case []any:
		if len(v) >= 2 {
			key, kok := v[0].(string)
			method, mok := v[1].(string)
			if kok && mok {
				in := Indirect{Key: key, Method: method}
				if len(v) > 2 {
					in.Params, _ = v[2].(ioc.Params)
				}
				return resolveIndirect(c, in)
			}
		}
	case string:
		return resolveDispatchable(c, v)
	case Dispatchable:
		return v.Dispatch, nil
	}

	cb, err := event.Adapt(raw)
	if err != nil {
		return nil, ErrVirtualCallback.With("value", fmt.Sprintf("%T", raw)).WithCause(err)
	}
	return cb, nil
}

func resolveIndirect(c *ioc.Container, in Indirect) (event.Callback, error) {
	c.SingletonIf(in.Key)

	obj, err := c.Make(in.Key, in.Params)
	if err != nil {
		return nil, err
	}

	m := reflect.ValueOf(obj).MethodByName(in.Method)
	if !m.IsValid() {
		return nil, ErrVirtualCallback.
			With("key", in.Key).
			With("method", in.Method)
	}
	return event.Adapt(m.Interface())
}

var dispatchableType = reflect.TypeFor[Dispatchable]()

func resolveDispatchable(c *ioc.Container, name string) (event.Callback, error) {
	cat := c.Catalog()
	if cat == nil {
		return nil, ErrVirtualCallback.With("value", name)
	}

	entry, ok := cat.Lookup(name)
	if !ok || !entry.Implements(dispatchableType) {
		return nil, ErrVirtualCallback.With("value", name)
	}

	obj, err := c.Make(name)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(Dispatchable)
	if !ok {
		return nil, ErrVirtualCallback.
			With("value", name).
			With("type", fmt.Sprintf("%T", obj))
	}
	return d.Dispatch, nil
}

// uninvocable stands in for a virtual callback that could not be resolved
// under the lenient policy.
func uninvocable(method string, raw any) event.Callback {
	return func(...any) (any, error) {
		return nil, ErrVirtualCallback.
			With("method", method).
			With("value", fmt.Sprintf("%T", raw))
	}
}
