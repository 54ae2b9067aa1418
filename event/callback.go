package event

import (
	"fmt"
	"reflect"
)

// Callback is the uniform shape every subscriber is invoked through.
type Callback func(args ...any) (any, error)

var errorType = reflect.TypeFor[error]()

// Adapt turns an arbitrary func into a Callback. Missing arguments are
// passed as zero values, extra ones are dropped. Supported results are none,
// (T), (error) and (T, error).
func Adapt(fn any) (Callback, error) {
	switch f := fn.(type) {
	case nil:
		return nil, fmt.Errorf("event: nil callback")
	case Callback:
		return f, nil
	case func(...any) (any, error):
		return f, nil
	case func(...any):
		return func(args ...any) (any, error) { f(args...); return nil, nil }, nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("event: %T is not callable", fn)
	}
	if v.IsNil() {
		return nil, fmt.Errorf("event: nil callback")
	}

	t := v.Type()
	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("event: %s: second result must be error", t)
		}
	default:
		return nil, fmt.Errorf("event: %s: too many results", t)
	}

	return func(args ...any) (any, error) {
		in, err := arguments(t, args)
		if err != nil {
			return nil, err
		}
		return results(t, v.Call(in))
	}, nil
}

// MustAdapt is like Adapt but panics on error.
func MustAdapt(fn any) Callback {
	cb, err := Adapt(fn)
	if err != nil {
		panic(err)
	}
	return cb
}

func arguments(t reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, 0, t.NumIn())
	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := convert(arg, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("event: argument %d: %w", i, err)
		}
		in = append(in, v)
	}

	if t.IsVariadic() {
		elem := t.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convert(args[i], elem)
			if err != nil {
				return nil, fmt.Errorf("event: argument %d: %w", i, err)
			}
			in = append(in, v)
		}
	}

	return in, nil
}

func convert(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %s", arg, t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func results(t reflect.Type, out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
