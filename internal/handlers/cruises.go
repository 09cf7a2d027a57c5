// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"time"

	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/profile"
	"github.com/labstack/echo/v4"
)

type joinCruiseRequest struct {
	CruiseDepartureDate string `json:"cruiseDepartureDate"`
	ShipID              int64  `json:"shipId"`
}

type companyRequest struct {
	CompanyID int64 `json:"companyId"`
}

type cruiseRequest struct {
	CruiseID int64 `json:"cruiseId"`
}

func invalidField() error {
	return &requestError{status: http.StatusBadRequest, code: CodeInvalidField, messageID: "error_invalid_field"}
}

func notMember() error {
	return &requestError{status: http.StatusNotFound, code: CodeNotMember, messageID: "error_not_member"}
}

// GetCompanies lists the cruise lines of the catalog.
func (h *Handlers) GetCompanies(c echo.Context) error {
	companies, err := h.cruises.ListCompanies(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}

// GetShipsOfCompany lists the ships of one cruise line.
func (h *Handlers) GetShipsOfCompany(c echo.Context) error {
	var req companyRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.CompanyID <= 0 {
		return respondError(c, invalidField())
	}

	ships, err := h.cruises.ListShipsByCompany(c.Request().Context(), req.CompanyID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ships)
}

// JoinCruise adds the caller to a cruise.
func (h *Handlers) JoinCruise(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var req joinCruiseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if _, err := time.Parse(profile.DateLayout, req.CruiseDepartureDate); err != nil || req.ShipID <= 0 {
		return respondError(c, invalidField())
	}

	cruise, err := h.cruises.JoinCruise(c.Request().Context(), userID, req.CruiseDepartureDate, req.ShipID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cruise)
}

// LeaveCruise removes the caller from a cruise.
func (h *Handlers) LeaveCruise(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var req cruiseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.CruiseID <= 0 {
		return respondError(c, invalidField())
	}

	if err := h.cruises.LeaveCruise(c.Request().Context(), userID, req.CruiseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, notMember())
		}
		return respondError(c, err)
	}
	return message(c, http.StatusOK, "msg_cruise_left")
}

// GetMyCruises lists the caller's cruises.
func (h *Handlers) GetMyCruises(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	cruises, err := h.cruises.ListCruisesByUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cruises)
}

// GetCruiseFeed lists the profiles of the other members of a cruise the
// caller belongs to.
func (h *Handlers) GetCruiseFeed(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var req cruiseRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.CruiseID <= 0 {
		return respondError(c, invalidField())
	}

	ctx := c.Request().Context()
	if _, err := h.cruises.GetMembership(ctx, userID, req.CruiseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, notMember())
		}
		return respondError(c, err)
	}

	profiles, err := h.cruises.ListCruiseMembers(ctx, req.CruiseID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profiles)
}
