// Package validation builds struct validators whose errors read as English
// sentences.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps validator.Validate with an English translator.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator. When tagName is set, the first element of that
// struct tag names fields in messages instead of the Go field name.
func New(tagName string) (*Validator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	if tagName != "" {
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
	return &Validator{validate: validate, trans: trans}, nil
}

// RegisterRule adds a custom tag. message is its English text, with {0}
// standing for the field path below the top-level struct.
func (v *Validator) RegisterRule(tag string, fn validator.Func, message string) error {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("failed to register %s validation: %w", tag, err)
	}
	if err := v.validate.RegisterTranslation(tag, v.trans, func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fieldPath(fe.Namespace()))
		return t
	}); err != nil {
		return fmt.Errorf("failed to register %s translation: %w", tag, err)
	}
	return nil
}

// Struct validates s and returns one translated message per failed field.
// err is only set when s cannot be validated at all.
func (v *Validator) Struct(s any) ([]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, e.Translate(v.trans))
	}
	return msgs, nil
}

// fieldPath drops the top-level struct name: Config.schedule.timezone
// becomes schedule.timezone.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
