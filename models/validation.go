package models

import "github.com/go-playground/validator/v10"

// NewValidator returns a validator that also understands the "bloodtype" tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	// only fails for an empty tag name
	_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		return BloodType(fl.Field().String()).Valid()
	})
	return v
}
