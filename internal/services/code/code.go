// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package code issues the short numeric codes mailed for email
// verification and password reset.
package code

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// Digits is the length of a code.
	Digits = 6
	// TTL is how long a code stays valid after issuance.
	TTL = 10 * time.Minute
	// MaxAttempts is the number of checks allowed against one code.
	MaxAttempts = 5
	// Parked is the attempt count of an account without an active code.
	// It equals MaxAttempts so "no code" and "no attempts left" compare alike.
	Parked = MaxAttempts
)

var upperBound = big.NewInt(1_000_000)

// Code is a freshly issued code and the unix second it expires at.
type Code struct {
	Value     string
	ExpiresAt int64
}

// Generator draws codes from a random source.
type Generator struct {
	rand io.Reader
	ttl  time.Duration
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader, ttl: TTL}
}

// New returns a zero-padded code expiring TTL after now.
func (g *Generator) New(now time.Time) (Code, error) {
	n, err := rand.Int(g.rand, upperBound)
	if err != nil {
		return Code{}, fmt.Errorf("failed to generate code: %w", err)
	}
	return Code{
		Value:     fmt.Sprintf("%0*d", Digits, n.Int64()),
		ExpiresAt: now.Add(g.ttl).Unix(),
	}, nil
}
