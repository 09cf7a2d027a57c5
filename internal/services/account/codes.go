// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/code"
	"codeberg.org/typecode/accounts/internal/services/token"
)

// VerifyResult is the outcome of a successful verification check.
type VerifyResult struct {
	// AlreadyVerified is set when the account was verified before the call.
	// No tokens are issued in that case.
	AlreadyVerified bool
	Tokens          *token.Pair
}

// ResetParams holds the parameters for completing a password reset.
type ResetParams struct {
	Email       string
	Code        string
	NewPassword string
}

// SendVerificationCode issues and mails a verification code unless one is
// still usable and force is false.
func (s *Service) SendVerificationCode(ctx context.Context, email string, force bool) (SendResult, error) {
	return s.sendCode(ctx, PurposeVerification, email, force)
}

// SendPasswordResetCode issues and mails a password reset code. Only
// verified accounts can reset their password.
func (s *Service) SendPasswordResetCode(ctx context.Context, email string, force bool) (SendResult, error) {
	return s.sendCode(ctx, PurposePasswordReset, email, force)
}

func (s *Service) sendCode(ctx context.Context, purpose Purpose, email string, force bool) (SendResult, error) {
	a, err := s.lookup(ctx, email)
	if err != nil {
		return 0, err
	}

	switch purpose {
	case PurposeVerification:
		if a.EmailVerified {
			return AlreadyVerified, nil
		}
	case PurposePasswordReset:
		if !a.EmailVerified {
			return 0, ErrNotVerified
		}
	}

	now := s.now()
	if !force && codeActive(a, now.Unix()) {
		return CodeStillValid, nil
	}

	if err := s.limiter.Allow(ctx, string(purpose), a.Email); err != nil {
		slog.InfoContext(ctx, "code_throttled", "user_id", a.ID, "purpose", purpose)
		return 0, err
	}

	c, err := s.codes.New(now)
	if err != nil {
		return 0, err
	}

	err = s.store.UpdateAccount(ctx, a.ID, models.AccountPatch{
		EmailCode:          models.Ptr(c.Value),
		EmailCodeExpiresAt: models.Ptr(c.ExpiresAt),
		EmailCodeAttempts:  models.Ptr(0),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.deliver(ctx, purpose, a.Email, c.Value); err != nil {
		slog.ErrorContext(ctx, "delivery_failed", "user_id", a.ID, "purpose", purpose, "error", err)
		if perr := s.store.UpdateAccount(ctx, a.ID, parkedPatch()); perr != nil {
			slog.ErrorContext(ctx, "code_park_failed", "user_id", a.ID, "error", perr)
		}
		return 0, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	slog.InfoContext(ctx, "code_sent", "user_id", a.ID, "purpose", purpose, "forced", force)
	return CodeSent, nil
}

// codeActive reports whether a usable code is stored.
func codeActive(a *models.Account, now int64) bool {
	return a.EmailCode != "" && now <= a.EmailCodeExpiresAt && a.EmailCodeAttempts < code.MaxAttempts
}

func (s *Service) deliver(ctx context.Context, purpose Purpose, to, value string) error {
	if purpose == PurposePasswordReset {
		return s.sender.SendPasswordResetCode(ctx, to, value)
	}
	return s.sender.SendVerificationCode(ctx, to, value)
}

// CheckVerificationCode verifies the account when value matches the stored
// code and returns a token pair.
func (s *Service) CheckVerificationCode(ctx context.Context, email, value string) (*VerifyResult, error) {
	a, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if a.EmailVerified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}

	stored, err := s.spendAttempt(ctx, a, PurposeVerification, value)
	if err != nil {
		return nil, err
	}

	patch := parkedPatch()
	patch.EmailCodeExpiresAt = nil
	patch.EmailVerified = models.Ptr(true)
	if err := s.consume(ctx, a.ID, stored, patch); err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	slog.InfoContext(ctx, "email_verified", "user_id", a.ID)
	return &VerifyResult{Tokens: pair}, nil
}

// CheckPasswordResetCode replaces the password when the code matches and
// the new password satisfies the policy.
func (s *Service) CheckPasswordResetCode(ctx context.Context, params ResetParams) error {
	a, err := s.lookup(ctx, params.Email)
	if err != nil {
		return err
	}
	if !a.EmailVerified {
		return ErrNotVerified
	}

	stored, err := s.spendAttempt(ctx, a, PurposePasswordReset, params.Code)
	if err != nil {
		return err
	}

	if err := s.policy.Validate(params.NewPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(params.NewPassword)
	if err != nil {
		return err
	}

	patch := parkedPatch()
	patch.EmailCodeExpiresAt = nil
	patch.PasswordHash = models.Ptr(hash)
	if err := s.consume(ctx, a.ID, stored, patch); err != nil {
		return err
	}

	slog.InfoContext(ctx, "password_reset", "user_id", a.ID)
	return nil
}

// spendAttempt checks expiry and remaining attempts, spends one attempt and
// then compares value with the stored code. It returns the matched code.
func (s *Service) spendAttempt(ctx context.Context, a *models.Account, purpose Purpose, value string) (string, error) {
	now := s.now()

	fail := func(reason string, err error) (string, error) {
		slog.InfoContext(ctx, "code_check_failed", "user_id", a.ID, "purpose", purpose, "reason", reason)
		return "", err
	}

	if a.CodeExpired(now) {
		return fail("expired", ErrCodeExpired)
	}
	if a.EmailCodeAttempts >= code.MaxAttempts {
		return fail("attempts_exhausted", ErrAttemptsExhausted)
	}

	st, err := s.store.IncrementCodeAttempts(ctx, a.ID, code.MaxAttempts, now)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveCode) {
			return fail("attempts_exhausted", ErrAttemptsExhausted)
		}
		return "", fmt.Errorf("failed to record code attempt: %w", err)
	}

	if st.Code == "" || subtle.ConstantTimeCompare([]byte(st.Code), []byte(value)) != 1 {
		return fail("mismatch", ErrCodeMismatch)
	}
	return st.Code, nil
}

// consume applies patch while the matched code is still stored. A code
// consumed by a concurrent request counts as used up.
func (s *Service) consume(ctx context.Context, id int64, stored string, patch models.AccountPatch) error {
	if err := s.store.ConsumeCode(ctx, id, stored, patch); err != nil {
		if errors.Is(err, repository.ErrCodeConsumed) {
			return ErrAttemptsExhausted
		}
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}
