package ioc

import (
	"reflect"
	"strings"
)

// TypeKey returns the container key of t: the package path and type name,
// with one '*' per pointer level. Unnamed types fall back to t.String().
func TypeKey(t reflect.Type) string {
	if t == nil {
		return ""
	}

	var prefix strings.Builder
	for t.Kind() == reflect.Pointer {
		prefix.WriteByte('*')
		t = t.Elem()
	}

	if t.PkgPath() == "" || t.Name() == "" {
		return prefix.String() + t.String()
	}
	return prefix.String() + t.PkgPath() + "." + t.Name()
}

// KeyOf returns the container key of T.
func KeyOf[T any]() string {
	return TypeKey(reflect.TypeFor[T]())
}

// NormalizeName trims surrounding whitespace and leading namespace separators
// from a fully-qualified name, so `\App\Foo` and `App\Foo` are the same key.
func NormalizeName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), `\`)
}
