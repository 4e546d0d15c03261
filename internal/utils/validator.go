// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Vintages outside this range are rejected, except the non-vintage marker 0.
const (
	minVintageYear = 1000
	maxVintageYear = 9999
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("vintage", validateVintage)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateVintage(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year == 0 || (year >= minVintageYear && year <= maxVintageYear)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   toSnakeCase(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// RequiredFieldError builds the same shape validator produces for a missing field.
func RequiredFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Tag:     "required",
		Message: field + " is required",
	}
}

func getValidationMessage(e validator.FieldError) string {
	field := toSnakeCase(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return field + " must be greater than " + e.Param()
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "url":
		return field + " must be a valid URL"
	case "vintage":
		return "vintage must be a year between 1000 and 9999, or NV"
	default:
		return field + " is invalid"
	}
}

func toSnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || (nextLower && runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
