// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// HTTPURL validates that a string is an absolute http or https URL.
var HTTPURL = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_url_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return validation.NewError("validation_url", "must be a valid URL")
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return validation.NewError("validation_url_scheme", "must be an absolute http or https URL")
	}
	return nil
})
