// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/typecode/accounts/internal/ctxkeys"
)

// WithUserID returns a context carrying the authenticated account id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxkeys.UserID{}, id)
}

// UserID returns the authenticated account id from the context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxkeys.UserID{}).(int64)
	return id, ok && id > 0
}

// IsAuthenticated returns true if the context carries an account id.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := UserID(ctx)
	return ok
}
