// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package code_test

import (
	"regexp"
	"testing"
	"time"

	"codeberg.org/typecode/accounts/internal/services/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestGenerator_New(t *testing.T) {
	g := code.NewGenerator()
	now := time.Unix(1_700_000_000, 0)

	c, err := g.New(now)

	require.NoError(t, err)
	assert.Regexp(t, sixDigits, c.Value)
	assert.Equal(t, now.Add(10*time.Minute).Unix(), c.ExpiresAt)
}

func TestGenerator_NotConstant(t *testing.T) {
	g := code.NewGenerator()
	seen := make(map[string]struct{})

	for range 50 {
		c, err := g.New(time.Now())
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, c.Value)
		seen[c.Value] = struct{}{}
	}

	assert.Greater(t, len(seen), 1)
}

func TestParkedEqualsMaxAttempts(t *testing.T) {
	assert.Equal(t, code.MaxAttempts, code.Parked)
}
