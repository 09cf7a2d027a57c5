// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session carries the refresh token in a sealed, script-inaccessible
// cookie.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/typecode/accounts/internal/config"
	"github.com/gorilla/securecookie"
)

var (
	// ErrNoCookie is returned when the request carries no refresh cookie.
	ErrNoCookie = errors.New("no refresh cookie")
	// ErrInvalidCookie is returned when the cookie fails decoding or its MAC.
	ErrInvalidCookie = errors.New("invalid refresh cookie")
)

const keyLength = 32

// Manager seals refresh tokens into cookies and reads them back.
type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	path   string
	maxAge int
	secure bool
}

// NewManager creates a Manager from cfg. An empty hash key is replaced by a
// random one, so cookies do not survive a restart.
func NewManager(cfg *config.CookieConfig) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		slog.Warn("cookie hash key not configured, using ephemeral key")
		hashKey = securecookie.GenerateRandomKey(keyLength)
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)

	name := cfg.Name
	if name == "" {
		name = "refreshToken"
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}

	return &Manager{
		codec:  codec,
		name:   name,
		path:   path,
		maxAge: cfg.MaxAge,
		secure: cfg.Secure,
	}, nil
}

func decodeKey(value, kind string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie %s key: %w", kind, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("invalid cookie %s key: must be %d bytes, got %d", kind, keyLength, len(key))
	}
	return key, nil
}

// Name returns the cookie name.
func (m *Manager) Name() string {
	return m.name
}

// Create seals token into a cookie expiring at expiresAt.
func (m *Manager) Create(token string, expiresAt time.Time) (*http.Cookie, error) {
	value, err := m.codec.Encode(m.name, token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh cookie: %w", err)
	}

	maxAge := m.maxAge
	if remaining := int(time.Until(expiresAt) / time.Second); !expiresAt.IsZero() && (maxAge <= 0 || remaining < maxAge) {
		maxAge = remaining
	}

	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     m.path,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}, nil
}

// Read returns the refresh token carried by r.
func (m *Manager) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCookie
	}

	var token string
	if err := m.codec.Decode(m.name, cookie.Value, &token); err != nil {
		return "", ErrInvalidCookie
	}
	return token, nil
}

// Clear returns a cookie that removes the refresh cookie from the client.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     m.path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
