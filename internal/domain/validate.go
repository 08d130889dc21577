package domain

import (
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that knows the "clock" tag used on Incident.Time.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}
