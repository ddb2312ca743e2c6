// internal/app/system/authutil/authutil.go
package authutil

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt only reads the first 72 bytes.
	MaxPasswordLength = 72
)

// Password strength messages. Each rule reports exactly one of these.
const (
	MsgTooShort  = "Password must be at least 8 characters long"
	MsgTooLong   = "Password must be at most 72 characters long"
	MsgNoUpper   = "Password must contain at least one uppercase letter"
	MsgNoLower   = "Password must contain at least one lowercase letter"
	MsgNoDigit   = "Password must contain at least one number"
	MsgNoSpecial = "Password must contain at least one special character"
)

// PasswordStrength is the outcome of ValidatePasswordStrength.
type PasswordStrength struct {
	IsValid bool
	Errors  []string
}

// ValidatePasswordStrength checks pw against every rule and lists each
// failed rule's message.
func ValidatePasswordStrength(pw string) PasswordStrength {
	var errs []string

	if len([]rune(pw)) < MinPasswordLength {
		errs = append(errs, MsgTooShort)
	}
	if len(pw) > MaxPasswordLength {
		errs = append(errs, MsgTooLong)
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper {
		errs = append(errs, MsgNoUpper)
	}
	if !lower {
		errs = append(errs, MsgNoLower)
	}
	if !digit {
		errs = append(errs, MsgNoDigit)
	}
	if !special {
		errs = append(errs, MsgNoSpecial)
	}

	return PasswordStrength{IsValid: len(errs) == 0, Errors: errs}
}

// PasswordRules describes the strength rules for form help text.
func PasswordRules() string {
	return "At least 8 characters, with an uppercase letter, a lowercase letter, a number and a special character."
}

// HashPassword returns a salted bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ComparePassword reports whether pw matches hash. A malformed hash never matches.
func ComparePassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
