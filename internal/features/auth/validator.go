package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/xyz-asif/oipet/internal/pkg/validator"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

const maxUserNameLength = 100

// ValidateName checks a display name: non blank, at most 100 characters.
func ValidateName(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return []string{"name is required"}
	}
	if utf8.RuneCountInString(name) > maxUserNameLength {
		return []string{"name must be at most 100 characters"}
	}
	return nil
}

// ValidatePhone accepts an empty phone or a valid one.
func ValidatePhone(phone string) []string {
	if strings.TrimSpace(phone) == "" || validator.IsValidPhone(phone) {
		return nil
	}
	return []string{"phone number is invalid"}
}

// ValidateRegister collects every problem with req so the client can show
// them all at once.
func ValidateRegister(req *RegisterRequest) error {
	var details []string
	details = append(details, ValidateName(req.Name)...)
	if !validator.IsValidEmail(validator.NormalizeEmail(req.Email)) {
		details = append(details, "email is invalid")
	}
	details = append(details, ValidatePhone(req.Phone)...)
	details = append(details, validator.PasswordViolations(req.Password)...)

	if len(details) > 0 {
		return apperrors.Validation("validation failed", details...)
	}
	return nil
}

// ValidateNewPassword wraps the strength rules as a validation error.
func ValidateNewPassword(password string) error {
	if v := validator.PasswordViolations(password); len(v) > 0 {
		return apperrors.Validation("password does not meet requirements", v...)
	}
	return nil
}
