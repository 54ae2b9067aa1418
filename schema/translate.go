package schema

import (
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/log"
)

var translator ut.Translator

func registerTranslations(v *validator.Validate) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, found := uni.GetTranslator("en")
	if !found {
		return
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		log.Warn().Err(err).Str("component", "schema").Msg("validation messages untranslated")
		return
	}
	translator = trans
}

// ValidationError carries readable messages for validator failures.
type ValidationError struct {
	Messages []string
	cause    validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Translate turns validator failures into a ValidationError. Other errors
// are returned unchanged.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if err == nil || translator == nil || !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.TrimSpace(fe.Translate(translator)))
	}
	return &ValidationError{Messages: msgs, cause: verrs}
}
