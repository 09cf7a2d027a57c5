// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/typecode/accounts/internal/services/account"
	"codeberg.org/typecode/accounts/internal/services/session"
	"codeberg.org/typecode/accounts/internal/services/token"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type sendCodeRequest struct {
	Email       string `json:"email"`
	ForceResend bool   `json:"forceResend"`
}

type checkCodeRequest struct {
	Email     string `json:"email"`
	EmailCode string `json:"emailCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email       string `json:"email"`
	EmailCode   string `json:"emailCode"`
	NewPassword string `json:"newPassword"`
}

// Register creates an account.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	_, err := h.accounts.Register(c.Request().Context(), account.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusCreated, "msg_registered")
}

// SendVerificationCode mails a verification code.
func (h *Handlers) SendVerificationCode(c echo.Context) error {
	var req sendCodeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.accounts.SendVerificationCode(c.Request().Context(), req.Email, req.ForceResend)
	if err != nil {
		return respondError(c, err)
	}
	return h.sendResult(c, res, http.StatusCreated)
}

// SendPasswordResetCode mails a password reset code.
func (h *Handlers) SendPasswordResetCode(c echo.Context) error {
	var req sendCodeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.accounts.SendPasswordResetCode(c.Request().Context(), req.Email, req.ForceResend)
	if err != nil {
		return respondError(c, err)
	}
	return h.sendResult(c, res, http.StatusOK)
}

// sendResult renders the outcome of a code send. sentStatus is used when a
// new code went out.
func (h *Handlers) sendResult(c echo.Context, res account.SendResult, sentStatus int) error {
	switch res {
	case account.AlreadyVerified:
		return c.NoContent(http.StatusNoContent)
	case account.CodeStillValid:
		return message(c, http.StatusOK, "msg_code_still_valid")
	default:
		return message(c, sentStatus, "msg_code_sent")
	}
}

// CheckVerificationCode verifies the email address and logs the user in.
func (h *Handlers) CheckVerificationCode(c echo.Context) error {
	var req checkCodeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.accounts.CheckVerificationCode(c.Request().Context(), req.Email, req.EmailCode)
	if err != nil {
		return respondError(c, err)
	}
	if res.AlreadyVerified {
		return c.NoContent(http.StatusNoContent)
	}
	return h.issueSession(c, res.Tokens)
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	pair, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return h.issueSession(c, pair)
}

// issueSession sets the refresh cookie and returns the access token.
func (h *Handlers) issueSession(c echo.Context, pair *token.Pair) error {
	cookie, err := h.cookies.Create(pair.RefreshToken, pair.RefreshExpiresAt)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken})
}

// CheckPasswordResetCode sets a new password.
func (h *Handlers) CheckPasswordResetCode(c echo.Context) error {
	var req resetRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	err := h.accounts.CheckPasswordResetCode(c.Request().Context(), account.ResetParams{
		Email:       req.Email,
		Code:        req.EmailCode,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "msg_password_changed")
}

// RefreshToken mints a new access token from the refresh cookie.
func (h *Handlers) RefreshToken(c echo.Context) error {
	raw, err := h.cookies.Read(c.Request())
	if err != nil {
		if errors.Is(err, session.ErrNoCookie) {
			return WriteError(c, http.StatusUnauthorized, CodeNoRefreshToken, "error_no_refresh_token")
		}
		return WriteError(c, http.StatusForbidden, CodeInvalidRefreshToken, "error_invalid_refresh_token")
	}

	access, err := h.tokens.Refresh(raw)
	if err != nil {
		return WriteError(c, http.StatusForbidden, CodeInvalidRefreshToken, "error_invalid_refresh_token")
	}
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: access})
}

// Logout clears the refresh cookie.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.cookies.Clear())
	return message(c, http.StatusOK, "msg_logged_out")
}

// DeleteUser deletes the caller's account and its memberships.
func (h *Handlers) DeleteUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.accounts.Delete(c.Request().Context(), userID); err != nil {
		return respondError(c, err)
	}

	c.SetCookie(h.cookies.Clear())
	return c.NoContent(http.StatusNoContent)
}
