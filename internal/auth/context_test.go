// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth_test

import (
	"context"
	"testing"

	"codeberg.org/typecode/accounts/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	ctx := auth.WithUserID(context.Background(), 42)

	id, ok := auth.UserID(ctx)

	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.True(t, auth.IsAuthenticated(ctx))
}

func TestUserID_Missing(t *testing.T) {
	_, ok := auth.UserID(context.Background())

	assert.False(t, ok)
	assert.False(t, auth.IsAuthenticated(context.Background()))
}

func TestUserID_Zero(t *testing.T) {
	ctx := auth.WithUserID(context.Background(), 0)

	assert.False(t, auth.IsAuthenticated(ctx))
}
