// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strconv"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/ordersaga/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// decimalRegex matches plain decimal amounts like "100" or "99.90"
	decimalRegex = regexp.MustCompile(`^\d+(\.\d{1,4})?$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// PositiveAmount validates that a string is a positive decimal amount.
// Monetary values travel as strings end to end, so the check works on the
// textual form and never converts the value for storage.
var PositiveAmount = validation.NewStringRuleWithError(
	func(s string) bool {
		if !decimalRegex.MatchString(s) {
			return false
		}
		value, err := strconv.ParseFloat(s, 64)
		return err == nil && value > 0
	},
	validation.NewError("validation_positive_amount", "must be a positive decimal amount"),
)
