// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"codeberg.org/typecode/accounts/internal/auth"
	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/services/account"
	"codeberg.org/typecode/accounts/internal/services/profile"
	"codeberg.org/typecode/accounts/internal/services/session"
	"github.com/labstack/echo/v4"
)

// CruiseStore keeps cruise memberships.
type CruiseStore interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListShipsByCompany(ctx context.Context, companyID int64) ([]models.Ship, error)
	JoinCruise(ctx context.Context, userID int64, departureDate string, shipID int64) (*models.Cruise, error)
	LeaveCruise(ctx context.Context, userID, cruiseID int64) error
	GetMembership(ctx context.Context, userID, cruiseID int64) (*models.Membership, error)
	ListCruisesByUser(ctx context.Context, userID int64) ([]models.Cruise, error)
	ListCruiseMembers(ctx context.Context, cruiseID, excludeUserID int64) ([]models.PublicProfile, error)
}

// Refresher mints access tokens from refresh tokens.
type Refresher interface {
	Refresh(refreshToken string) (string, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers depend on.
type Deps struct {
	Accounts *account.Service
	Profiles *profile.Service
	Cruises  CruiseStore
	Tokens   Refresher
	Cookies  *session.Manager
	DB       Pinger
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	accounts *account.Service
	profiles *profile.Service
	cruises  CruiseStore
	tokens   Refresher
	cookies  *session.Manager
	db       Pinger
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	return &Handlers{
		accounts: d.Accounts,
		profiles: d.Profiles,
		cruises:  d.Cruises,
		tokens:   d.Tokens,
		cookies:  d.Cookies,
		db:       d.DB,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// MessageResponse carries a localized status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a fresh access token.
type TokenResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"accessToken"`
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return &requestError{status: http.StatusBadRequest, code: CodeInvalidRequest, messageID: "error_invalid_request", cause: err}
	}
	return nil
}

// bindStrict decodes a JSON body and rejects fields v does not declare.
func bindStrict(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &requestError{status: http.StatusBadRequest, code: CodeInvalidField, messageID: "error_invalid_field", cause: err}
	}
	return nil
}

func message(c echo.Context, status int, messageID string) error {
	return c.JSON(status, MessageResponse{Message: translate(c, messageID)})
}

// currentUser returns the id stored by the auth middleware.
func currentUser(c echo.Context) (int64, error) {
	id, ok := auth.UserID(c.Request().Context())
	if !ok {
		return 0, &requestError{status: http.StatusUnauthorized, code: CodeMissingToken, messageID: "error_missing_token"}
	}
	return id, nil
}
