// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account implements registration, email verification, login,
// password reset and account deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/code"
	"codeberg.org/typecode/accounts/internal/services/password"
	"codeberg.org/typecode/accounts/internal/services/throttle"
	"codeberg.org/typecode/accounts/internal/services/token"
)

var (
	ErrAlreadyExists      = errors.New("account already exists")
	ErrWeakPassword       = password.ErrWeakPassword
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("invalid name")
	ErrNotFound           = errors.New("account not found")
	ErrCodeExpired        = errors.New("code expired")
	ErrAttemptsExhausted  = errors.New("code attempts exhausted")
	ErrCodeMismatch       = errors.New("code mismatch")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrCascadeFailed      = errors.New("failed to remove dependent records")
	ErrDeliveryFailed     = errors.New("failed to deliver code")
	ErrRateLimited        = throttle.ErrRateLimited
)

// Store persists accounts and their code bookkeeping.
type Store interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) error
	DeleteAccount(ctx context.Context, id int64) error
	IncrementCodeAttempts(ctx context.Context, id int64, maxAttempts int, now time.Time) (*repository.CodeState, error)
	ConsumeCode(ctx context.Context, id int64, code string, patch models.AccountPatch) error
}

// DependentsRemover deletes records that reference an account.
type DependentsRemover interface {
	DeleteMembershipsByUser(ctx context.Context, userID int64) error
}

// CodeSender delivers codes to the account holder.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

// TokenIssuer mints the session tokens handed out after login.
type TokenIssuer interface {
	IssuePair(userID int64) (*token.Pair, error)
}

// Hasher hashes and checks passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	VerifyDummy(plaintext string)
}

// CodeGenerator issues verification codes.
type CodeGenerator interface {
	New(now time.Time) (code.Code, error)
}

// Purpose tells verification codes and password reset codes apart.
type Purpose string

const (
	PurposeVerification  Purpose = "verification"
	PurposePasswordReset Purpose = "password_reset"
)

// SendResult describes what a send request did.
type SendResult int

const (
	// CodeSent means a new code was stored and delivered.
	CodeSent SendResult = iota
	// CodeStillValid means an unused code exists and nothing changed.
	CodeStillValid
	// AlreadyVerified means the account needs no verification code.
	AlreadyVerified
)

func (r SendResult) String() string {
	switch r {
	case CodeSent:
		return "sent"
	case CodeStillValid:
		return "still_valid"
	case AlreadyVerified:
		return "already_verified"
	default:
		return "unknown"
	}
}

// Service runs the account lifecycle.
type Service struct {
	store   Store
	cascade DependentsRemover
	sender  CodeSender
	tokens  TokenIssuer
	hasher  Hasher
	policy  *password.Policy
	limiter throttle.Limiter
	codes   CodeGenerator
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithPolicy replaces the default password policy.
func WithPolicy(p *password.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLimiter throttles how often new codes are issued.
func WithLimiter(l throttle.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithCodeGenerator replaces the crypto/rand code generator.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) {
		s.codes = g
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service.
func NewService(store Store, cascade DependentsRemover, sender CodeSender, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cascade: cascade,
		sender:  sender,
		tokens:  tokens,
		policy:  password.DefaultPolicy(),
		limiter: throttle.Nop{},
		codes:   code.NewGenerator(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = password.NewHasher(password.DefaultCost)
	}
	return s
}

// Policy returns the password policy in use.
func (s *Service) Policy() *password.Policy {
	return s.policy
}

// lookup loads an account by email and maps a missing row to ErrNotFound.
func (s *Service) lookup(ctx context.Context, email string) (*models.Account, error) {
	a, err := s.store.GetAccountByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}

// parkedPatch clears the code and leaves no attempts.
func parkedPatch() models.AccountPatch {
	return models.AccountPatch{
		EmailCode:          models.Ptr(""),
		EmailCodeExpiresAt: models.Ptr(int64(0)),
		EmailCodeAttempts:  models.Ptr(code.Parked),
	}
}
