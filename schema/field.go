package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/log"
)

// Value types a field may declare.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Field describes one meta or option value.
type Field struct {
	Key         string `json:"key" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=string integer number boolean array object"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	// Rules is a validator tag applied by Sanitize, e.g. "email" or "min=1,max=5".
	Rules      string `json:"rules,omitempty"`
	Required   bool   `json:"required,omitempty"`
	ShowInRest bool   `json:"show_in_rest,omitempty"`
	Autoload   bool   `json:"autoload,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		registerTranslations(validate)
	})
	return validate
}

// ErrVerification is the warning returned when a value is replaced by the
// field default.
var ErrVerification = errors.Verification("value failed verification")

// ErrInvalidRule is returned when Rules is not a usable validator tag.
var ErrInvalidRule = errors.Configuration("invalid validation rule")

// ruleSamples are non-zero values of each field type, used to try Rules
// before any real value is seen.
var ruleSamples = map[string][]any{
	TypeString:  {"a"},
	TypeInteger: {1},
	TypeNumber:  {1.5},
	TypeBoolean: {true},
	TypeArray:   {[]any{1}},
	TypeObject:  {map[string]any{"a": 1}},
}

// applyRules runs rules against v. The validator panics on unknown tags and
// malformed parameters; that is reported as ErrInvalidRule.
func applyRules(v any, rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrInvalidRule.With("rules", rules).WithCause(fmt.Errorf("%v", r))
		}
	}()
	return Translate(Validator().Var(v, rules))
}

// validateRules reports whether Rules can be applied to a value of the field
// type. An untyped field accepts rules usable with any type.
func (f Field) validateRules() error {
	if f.Rules == "" {
		return nil
	}

	samples, ok := ruleSamples[f.Type]
	if !ok {
		samples = []any{"a", 1, 1.5, true, []any{1}, map[string]any{"a": 1}}
	}

	var last error
	for _, s := range samples {
		err := applyRules(s, f.Rules)
		if !errors.Is(err, ErrInvalidRule) {
			return nil
		}
		last = err
	}
	return last
}

// Sanitize checks v against the field type and rules. A failing value is
// replaced by the default and the failure is returned as a recoverable
// warning; it is never fatal.
func (f Field) Sanitize(v any) (any, error) {
	if err := f.check(v); err != nil {
		warning := ErrVerification.With("key", f.Key).WithCause(err)
		log.Warn().
			Err(err).
			Str("component", "schema").
			Str("key", f.Key).
			Msg("value replaced by default")
		return f.Default, warning
	}
	if v == nil {
		return f.Default, nil
	}
	return v, nil
}

func (f Field) check(v any) error {
	if v == nil {
		if f.Required {
			return fmt.Errorf("value is required")
		}
		return nil
	}

	if !matchesType(f.Type, v) {
		return fmt.Errorf("%T is not of type %s", v, f.Type)
	}

	if f.Rules != "" {
		return applyRules(v, f.Rules)
	}
	return nil
}

func matchesType(typ string, v any) bool {
	k := reflect.TypeOf(v).Kind()
	switch typ {
	case "":
		return true
	case TypeString:
		return k == reflect.String
	case TypeInteger:
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case TypeNumber:
		switch k {
		case reflect.Float32, reflect.Float64:
			return true
		}
		return matchesType(TypeInteger, v)
	case TypeBoolean:
		return k == reflect.Bool
	case TypeArray:
		return k == reflect.Slice || k == reflect.Array
	case TypeObject:
		return k == reflect.Map || k == reflect.Struct
	default:
		return false
	}
}
