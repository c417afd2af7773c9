package validator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// (11) 98765-4321 or E.164
	phoneRegex  = regexp.MustCompile(`^(\(\d{2}\)\s\d{4,5}-\d{4}|\+?[1-9]\d{7,14})$`)
	hexTokenRex = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

const (
	PasswordMinLength = 6
	PasswordMaxLength = 128
)

// Password rule identifiers returned by PasswordViolations.
const (
	RuleTooShort     = "password must be at least 6 characters"
	RuleTooLong      = "password must be at most 128 characters"
	RuleMissingUpper = "password must contain an uppercase letter"
	RuleMissingLower = "password must contain a lowercase letter"
	RuleMissingDigit = "password must contain a digit"
)

// IsValidEmail checks if the email format is valid
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidPhone accepts the Brazilian display format or an E.164 number
func IsValidPhone(phone string) bool {
	if strings.TrimSpace(phone) == "" {
		return false
	}
	return phoneRegex.MatchString(phone)
}

// IsValidName checks length in runes (2..max) and that the name has a letter
func IsValidName(name string, max int) bool {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > max {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsHexToken reports whether s looks like a 32 byte hex token.
func IsHexToken(s string) bool {
	return hexTokenRex.MatchString(s)
}

// PasswordViolations returns every rule the password breaks, in a stable
// order. An empty slice means the password is acceptable.
func PasswordViolations(password string) []string {
	violations := []string{}

	length := utf8.RuneCountInString(password)
	if length < PasswordMinLength {
		violations = append(violations, RuleTooShort)
	}
	if length > PasswordMaxLength {
		violations = append(violations, RuleTooLong)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if !hasUpper {
		violations = append(violations, RuleMissingUpper)
	}
	if !hasLower {
		violations = append(violations, RuleMissingLower)
	}
	if !hasDigit {
		violations = append(violations, RuleMissingDigit)
	}
	return violations
}

// IsStrongPassword is PasswordViolations without the details.
func IsStrongPassword(password string) bool {
	return len(PasswordViolations(password)) == 0
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
