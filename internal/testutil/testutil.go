// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"codeberg.org/typecode/accounts/internal/database"
	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// ParkedAttempts mirrors the attempt count of an account without an active code.
const ParkedAttempts = 5

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccount creates an account with a placeholder password hash.
func NewTestAccount(t *testing.T, repo *repository.Repository, email string, verified bool) *models.Account {
	t.Helper()
	a := &models.Account{
		FirstName:         "Ann",
		LastName:          "Lee",
		Email:             email,
		PasswordHash:      "$2a$10$placeholderplaceholderplaceholderplaceholderplaceho",
		EmailVerified:     verified,
		EmailCodeAttempts: ParkedAttempts,
	}
	require.NoError(t, repo.CreateAccount(context.Background(), a))
	return a
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
