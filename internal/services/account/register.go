// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/code"
	"codeberg.org/typecode/accounts/internal/services/token"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// RegisterParams holds the parameters for registration.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ValidateEmail reports whether email is acceptable for an account.
func ValidateEmail(email string) error {
	if len(email) > repository.MaxEmailLength || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateName checks a first or last name after trimming.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 1 || n > repository.MaxNameLength {
		return ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// NormalizeName upper-cases the first letter and lower-cases the rest.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return upperCaser.String(string(first)) + lowerCaser.String(name[size:])
}

// Register creates an unverified account. No code is sent.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Account, error) {
	email := repository.NormalizeEmail(params.Email)

	_, err := s.store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrAlreadyExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	if err := s.policy.Validate(params.Password); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateName(params.FirstName); err != nil {
		return nil, err
	}
	if err := ValidateName(params.LastName); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	a := &models.Account{
		FirstName:         NormalizeName(params.FirstName),
		LastName:          NormalizeName(params.LastName),
		Email:             email,
		PasswordHash:      hash,
		EmailCodeAttempts: code.Parked,
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.InfoContext(ctx, "register_success", "user_id", a.ID)
	return a, nil
}

// Login checks credentials and issues a token pair. Unknown addresses and
// wrong passwords fail alike.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*token.Pair, error) {
	a, err := s.lookup(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.VerifyDummy(plaintext)
			slog.InfoContext(ctx, "login_failed", "reason", "unknown_email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !a.EmailVerified {
		slog.InfoContext(ctx, "login_failed", "reason", "not_verified", "user_id", a.ID)
		return nil, ErrNotVerified
	}

	if !s.hasher.Verify(plaintext, a.PasswordHash) {
		slog.InfoContext(ctx, "login_failed", "reason", "bad_password", "user_id", a.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

// Delete removes the account's dependent records and then the account.
// Nothing is deleted if the dependents cannot be removed.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	if _, err := s.store.GetAccountByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.cascade.DeleteMembershipsByUser(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "cascade_failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %w", ErrCascadeFailed, err)
	}

	if err := s.store.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	slog.InfoContext(ctx, "account_deleted", "user_id", userID)
	return nil
}
