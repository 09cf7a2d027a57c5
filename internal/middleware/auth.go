// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"strings"

	"codeberg.org/typecode/accounts/internal/auth"
	"codeberg.org/typecode/accounts/internal/handlers"
	"codeberg.org/typecode/accounts/internal/services/token"
	"github.com/labstack/echo/v4"
)

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	Verify(token string) (*token.Claims, error)
}

// RequireAuth rejects requests without a valid bearer access token and
// stores the account id of valid ones in the request context.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return handlers.WriteError(c, http.StatusUnauthorized, handlers.CodeMissingToken, "error_missing_token")
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				return handlers.WriteError(c, http.StatusForbidden, handlers.CodeInvalidToken, "error_invalid_token")
			}

			ctx := auth.WithUserID(c.Request().Context(), claims.UserID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.Contains(value, " ") {
		return "", false
	}
	return value, true
}
