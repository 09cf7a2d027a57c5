// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/typecode/accounts/internal/services/profile"
	"github.com/labstack/echo/v4"
)

// UserDataResponse is the caller's identity.
type UserDataResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// GetUserData returns the caller's names and email address.
func (h *Handlers) GetUserData(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	a, err := h.profiles.Get(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, UserDataResponse{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
	})
}

// UpdateUserProfile changes the caller's profile fields.
func (h *Handlers) UpdateUserProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var u profile.Update
	if err := bindStrict(c, &u); err != nil {
		return respondError(c, err)
	}

	if err := h.profiles.Update(c.Request().Context(), userID, u); err != nil {
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "msg_profile_updated")
}

// IsProfileDone reports whether the caller's profile is complete.
func (h *Handlers) IsProfileDone(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	done, err := h.profiles.IsDone(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"profileDone": done})
}
