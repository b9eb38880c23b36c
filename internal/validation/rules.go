// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/chronoshq/chronos/internal/errors"
)

var (
	// identifierRegex matches command and target system identifiers: letters,
	// digits, underscores and dashes, starting with a letter.
	identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]*$`)

	// urlRegex is a basic http(s) URL pattern; full parsing happens downstream.
	urlRegex = regexp.MustCompile(`^https?://\S+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string contains non-whitespace characters.
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank", "must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

// Identifier validates command and target system names.
var Identifier = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_identifier", "must be a string")
	}
	if !identifierRegex.MatchString(s) {
		return validation.NewError(
			"validation_identifier",
			"must start with a letter and contain only letters, digits, '_' or '-'",
		)
	}
	return nil
})

// HTTPURL validates that a string looks like an http or https URL.
var HTTPURL = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_http_url", "must be a string")
	}
	if !urlRegex.MatchString(s) {
		return validation.NewError("validation_http_url", "must be a valid http(s) URL")
	}
	return nil
})
