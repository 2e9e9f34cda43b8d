package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/lexideck/internal/validation"
)

func newValidator() (*validation.Validator, error) {
	v, err := validation.New("koanf")
	if err != nil {
		return nil, err
	}
	if err := v.RegisterRule("location", isLocation, "{0} must be an IANA time zone name or Local"); err != nil {
		return nil, err
	}
	return v, nil
}

// isLocation accepts anything time.LoadLocation resolves, Local included,
// except the empty string.
func isLocation(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
