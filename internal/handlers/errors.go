// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/typecode/accounts/internal/i18n"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/account"
	"codeberg.org/typecode/accounts/internal/services/password"
	"codeberg.org/typecode/accounts/internal/services/profile"
	"github.com/labstack/echo/v4"
)

// Machine readable error kinds returned in the "code" field.
const (
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodeInvalidName         = "INVALID_NAME"
	CodeInvalidField        = "INVALID_FIELD"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeNotFound            = "NOT_FOUND"
	CodeCodeExpired         = "EMAIL_CODE_TIMEOUT"
	CodeAttemptsExhausted   = "EMAIL_CODE_MAX_ATTEMPTS"
	CodeCodeMismatch        = "EMAIL_CODE_MISMATCH"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeNotVerified         = "ACCOUNT_NOT_VERIFIED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeMissingToken        = "MISSING_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeNoRefreshToken      = "NO_REFRESH_TOKEN"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeNotMember           = "NOT_MEMBER"
	CodeInternal            = "INTERNAL"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

type apiError struct {
	err       error
	status    int
	code      string
	messageID string
}

var errorTable = []apiError{
	{account.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, "error_already_exists"},
	{account.ErrWeakPassword, http.StatusBadRequest, CodeWeakPassword, "error_weak_password"},
	{account.ErrInvalidEmail, http.StatusBadRequest, CodeInvalidEmail, "error_invalid_email"},
	{account.ErrInvalidName, http.StatusBadRequest, CodeInvalidName, "error_invalid_name"},
	{profile.ErrInvalidBirthDate, http.StatusBadRequest, CodeInvalidField, "error_invalid_field"},
	{repository.ErrInvalidField, http.StatusBadRequest, CodeInvalidField, "error_invalid_field"},
	{repository.ErrUnknownShip, http.StatusBadRequest, CodeInvalidField, "error_invalid_field"},
	{account.ErrNotFound, http.StatusNotFound, CodeNotFound, "error_not_found"},
	{account.ErrCodeExpired, http.StatusUnauthorized, CodeCodeExpired, "error_code_expired"},
	{account.ErrAttemptsExhausted, http.StatusUnauthorized, CodeAttemptsExhausted, "error_code_max_attempts"},
	{account.ErrCodeMismatch, http.StatusUnauthorized, CodeCodeMismatch, "error_code_mismatch"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "error_invalid_credentials"},
	{account.ErrNotVerified, http.StatusForbidden, CodeNotVerified, "error_not_verified"},
	{account.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, "error_rate_limited"},
}

// requestError rejects a request before it reaches a service.
type requestError struct {
	status    int
	code      string
	messageID string
	cause     error
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return e.code + ": " + e.cause.Error()
	}
	return e.code
}

func (e *requestError) Unwrap() error {
	return e.cause
}

func translate(c echo.Context, messageID string) string {
	return i18n.T(c.Request().Context(), messageID)
}

// WriteError writes a localized error body.
func WriteError(c echo.Context, status int, code, messageID string) error {
	return c.JSON(status, ErrorResponse{
		Error: translate(c, messageID),
		Code:  code,
	})
}

// respondError maps err to its status and kind. Errors outside the table
// are logged and reported without detail.
func respondError(c echo.Context, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return WriteError(c, reqErr.status, reqErr.code, reqErr.messageID)
	}

	for _, e := range errorTable {
		if !errors.Is(err, e.err) {
			continue
		}
		body := ErrorResponse{
			Error: translate(c, e.messageID),
			Code:  e.code,
		}
		var policyErr *password.PolicyError
		if errors.As(err, &policyErr) {
			body.Details = policyErr.Codes()
		}
		return c.JSON(e.status, body)
	}

	slog.ErrorContext(c.Request().Context(), "request_failed",
		"path", c.Path(),
		"error", err,
	)
	return WriteError(c, http.StatusInternalServerError, CodeInternal, "error_internal")
}
