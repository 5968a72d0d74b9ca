package auth

import (
	"strings"
	"unicode/utf8"

	"go-user-service/internal/model"
)

const MinPasswordLength = 8

type passwordRule struct {
	message string
	ok      func(string) bool
}

// Character classes are ASCII only; any other character counts as special.
var passwordRules = []passwordRule{
	{"must be at least 8 characters long", func(p string) bool { return utf8.RuneCountInString(p) >= MinPasswordLength }},
	{"must contain at least one uppercase letter", hasRune(isASCIIUpper)},
	{"must contain at least one lowercase letter", hasRune(isASCIILower)},
	{"must contain at least one number", hasRune(isASCIIDigit)},
	{"must contain at least one special character", hasRune(func(r rune) bool {
		return !isASCIIUpper(r) && !isASCIILower(r) && !isASCIIDigit(r)
	})},
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func hasRune(pred func(rune) bool) func(string) bool {
	return func(p string) bool {
		return strings.IndexFunc(p, pred) >= 0
	}
}

// PolicyError lists every password rule that was not met.
type PolicyError struct {
	Unmet []string
}

func (e *PolicyError) Error() string {
	return model.ErrWeakPassword.Error() + ": " + strings.Join(e.Unmet, "; ")
}

func (e *PolicyError) Unwrap() error {
	return model.ErrWeakPassword
}

// CheckPassword returns a *PolicyError when password violates any rule.
func CheckPassword(password string) error {
	var unmet []string
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			unmet = append(unmet, "password "+rule.message)
		}
	}
	if len(unmet) > 0 {
		return &PolicyError{Unmet: unmet}
	}
	return nil
}
