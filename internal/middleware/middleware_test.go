// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/typecode/accounts/internal/auth"
	"codeberg.org/typecode/accounts/internal/config"
	"codeberg.org/typecode/accounts/internal/handlers"
	"codeberg.org/typecode/accounts/internal/i18n"
	"codeberg.org/typecode/accounts/internal/middleware"
	"codeberg.org/typecode/accounts/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func init() {
	_ = i18n.Init()
}

func newIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(&config.TokenConfig{AccessSecret: "access", RefreshSecret: "refresh"})
	require.NoError(t, err)
	return issuer
}

func protected(issuer *token.Issuer) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := auth.UserID(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, map[string]int64{"id": id})
	}, middleware.RequireAuth(issuer))
	return e
}

func serve(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	return body.Code
}

func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := newIssuer(t)
	access, err := issuer.IssueAccess(42)
	require.NoError(t, err)

	rec := serve(protected(issuer), "Bearer "+access)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())
}

func TestRequireAuth_SchemeIsCaseInsensitive(t *testing.T) {
	issuer := newIssuer(t)
	access, err := issuer.IssueAccess(42)
	require.NoError(t, err)

	rec := serve(protected(issuer), "bearer "+access)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"scheme only", "Bearer"},
		{"empty token", "Bearer   "},
		{"extra parts", "Bearer a b"},
	}

	issuer := newIssuer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(protected(issuer), tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, handlers.CodeMissingToken, errorCode(t, rec))
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	issuer := newIssuer(t)
	refresh, _, err := issuer.IssueRefresh(42)
	require.NoError(t, err)
	expired, err := token.NewIssuer(&config.TokenConfig{AccessSecret: "access", RefreshSecret: "refresh"},
		token.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	stale, err := expired.IssueAccess(42)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"refresh token", refresh},
		{"expired", stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(protected(issuer), "Bearer "+tt.token)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, handlers.CodeInvalidToken, errorCode(t, rec))
		})
	}
}

func TestLocale(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"de-DE,de;q=0.9", "de"},
		{"en-US", "en"},
		{"", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			var got string
			e := echo.New()
			e.GET("/", func(c echo.Context) error {
				got = i18n.GetLocale(c.Request().Context())
				return c.NoContent(http.StatusOK)
			}, middleware.Locale())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			e.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLocale_TranslatesErrors(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Locale())
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		middleware.RequireAuth(newIssuer(t)))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Accept-Language", "de")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, i18n.T(i18n.WithLocale(req.Context(), language.German), "error_missing_token"), body.Error)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() {
		slog.SetDefault(prev)
	})
	return &buf
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.GET("/api/users", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Contains(t, buf.String(), "msg=request")
	assert.Contains(t, buf.String(), "uri=/api/users")
	assert.Contains(t, buf.String(), "status=200")
}

func TestRequestLogger_SkipsHealth(t *testing.T) {
	buf := captureLogs(t)
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, buf.String())
}
