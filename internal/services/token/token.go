// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/typecode/accounts/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultIssuer     = "accounts"
)

// Claims are the claims carried by access and refresh tokens.
type Claims struct {
	UserID int64  `json:"uid"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is the result of a successful login or verification.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Issuer mints and verifies HS256 tokens. Access and refresh tokens are
// signed with different keys.
type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an Issuer from cfg. Empty secrets are replaced by
// random per-process keys, which invalidates all tokens on restart.
func NewIssuer(cfg *config.TokenConfig, opts ...Option) (*Issuer, error) {
	accessKey, err := signingKey(cfg.AccessSecret, "access")
	if err != nil {
		return nil, err
	}
	refreshKey, err := signingKey(cfg.RefreshSecret, "refresh")
	if err != nil {
		return nil, err
	}

	i := &Issuer{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
	if i.accessTTL <= 0 {
		i.accessTTL = defaultAccessTTL
	}
	if i.refreshTTL <= 0 {
		i.refreshTTL = defaultRefreshTTL
	}
	if i.issuer == "" {
		i.issuer = defaultIssuer
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func signingKey(secret, kind string) ([]byte, error) {
	if secret != "" {
		return []byte(secret), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate %s token key: %w", kind, err)
	}
	slog.Warn("token secret not configured, using ephemeral key", "kind", kind)
	return key, nil
}

// RefreshTTL returns the lifetime of refresh tokens.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccess mints a short-lived access token for userID.
func (i *Issuer) IssueAccess(userID int64) (string, error) {
	tok, _, err := i.issue(userID, TypeAccess, i.accessKey, i.accessTTL)
	return tok, err
}

// IssueRefresh mints a refresh token for userID and returns its expiry.
func (i *Issuer) IssueRefresh(userID int64) (string, time.Time, error) {
	return i.issue(userID, TypeRefresh, i.refreshKey, i.refreshTTL)
}

// IssuePair mints an access and a refresh token for userID.
func (i *Issuer) IssuePair(userID int64) (*Pair, error) {
	access, err := i.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := i.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expiresAt}, nil
}

func (i *Issuer) issue(userID int64, typ string, key []byte, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// Verify validates an access token and returns its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TypeAccess, i.accessKey)
}

// Refresh validates a refresh token and mints a new access token for its
// user. The refresh token itself is left untouched.
func (i *Issuer) Refresh(refreshToken string) (string, error) {
	claims, err := i.parse(refreshToken, TypeRefresh, i.refreshKey)
	if err != nil {
		return "", err
	}
	return i.IssueAccess(claims.UserID)
}

func (i *Issuer) parse(tokenString, typ string, key []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Type != typ || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
