package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	// This is used for fields like campaign names and user ids that must have meaningful content
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Register custom "slicecolor" validator for catalog display colors.
	// Accepts an empty string (color is optional) or a #RGB / #RRGGBB hex value.
	_ = v.RegisterValidation("slicecolor", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return str == "" || colorPattern.MatchString(str)
	})

	return v
}
