package password

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PolicyMessage is the fixed, user-facing rejection text for any policy
// violation. It names the whole rule set rather than the failed rule.
const PolicyMessage = "password must be at least 8 characters long and contain uppercase and lowercase letters, a digit and a symbol"

// DefaultSymbols is the punctuation set that satisfies the symbol rule.
const DefaultSymbols = `!@#$%^&*(),.?":{}|<>`

// DefaultMinLength is the minimum password length in characters.
const DefaultMinLength = 8

// ErrPolicyViolation is returned by Policy.Check. Its message is PolicyMessage.
var ErrPolicyViolation = errors.New(PolicyMessage)

// Policy is the stateless complexity rule set applied at registration and
// password reset. The zero value is not usable; start from DefaultPolicy.
type Policy struct {
	MinLength int
	Symbols   string
}

// DefaultPolicy returns the standard rule set: 8 characters minimum with at
// least one uppercase letter, lowercase letter, digit and symbol.
func DefaultPolicy() Policy {
	return Policy{
		MinLength: DefaultMinLength,
		Symbols:   DefaultSymbols,
	}
}

// Validate reports whether plain satisfies every rule. Length counts
// characters, not bytes.
func (p Policy) Validate(plain string) bool {
	if utf8.RuneCountInString(plain) < p.MinLength {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range plain {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(p.Symbols, r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}

// Check is Validate in error form for callers that propagate failures.
func (p Policy) Check(plain string) error {
	if !p.Validate(plain) {
		return ErrPolicyViolation
	}
	return nil
}
