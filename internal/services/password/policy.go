// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrWeakPassword is matched by every policy violation.
var ErrWeakPassword = errors.New("password does not meet requirements")

// DefaultSpecialChars is the allow-set for the special character rule.
const DefaultSpecialChars = "!@#$%^&*"

// Policy validates passwords against length and character class rules.
type Policy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireDigit     bool
	RequireSpecial   bool
	SpecialChars     string
}

// DefaultPolicy returns the policy applied at registration and password reset.
func DefaultPolicy() *Policy {
	return &Policy{
		MinLength:        8,
		MaxLength:        50,
		RequireUppercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
		SpecialChars:     DefaultSpecialChars,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PolicyError wraps all violations of a password.
type PolicyError struct {
	Errors []ValidationError
}

func (e *PolicyError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}

// Codes returns the machine readable codes of all violations.
func (e *PolicyError) Codes() []string {
	codes := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		codes[i] = err.Code
	}
	return codes
}

// Validate returns a *PolicyError listing every violated rule, or nil.
func (p *Policy) Validate(password string) error {
	var errs []ValidationError

	length := utf8.RuneCountInString(password)
	if length < p.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", p.MinLength),
		})
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		errs = append(errs, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d characters long.", p.MaxLength),
		})
	}

	// Character classes are ASCII on purpose.
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(p.SpecialChars, r):
			hasSpecial = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		errs = append(errs, ValidationError{
			Code:    "no_uppercase",
			Message: "Password must contain at least one uppercase letter.",
		})
	}

	if p.RequireDigit && !hasDigit {
		errs = append(errs, ValidationError{
			Code:    "no_digit",
			Message: "Password must contain at least one digit.",
		})
	}

	if p.RequireSpecial && !hasSpecial {
		errs = append(errs, ValidationError{
			Code:    "no_special",
			Message: fmt.Sprintf("Password must contain at least one of %s.", p.SpecialChars),
		})
	}

	if len(errs) > 0 {
		return &PolicyError{Errors: errs}
	}
	return nil
}

// HelpTexts describes the policy for display next to a password field.
func (p *Policy) HelpTexts() []string {
	texts := []string{fmt.Sprintf("Between %d and %d characters", p.MinLength, p.MaxLength)}

	if p.RequireUppercase {
		texts = append(texts, "At least one uppercase letter")
	}
	if p.RequireDigit {
		texts = append(texts, "At least one digit")
	}
	if p.RequireSpecial {
		texts = append(texts, "At least one of "+p.SpecialChars)
	}

	return texts
}
