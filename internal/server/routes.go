// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"codeberg.org/typecode/accounts/internal/middleware"
	"github.com/labstack/echo/v4"
)

func setupRoutes(e *echo.Echo, a *app) {
	h := a.handlers
	requireAuth := middleware.RequireAuth(a.tokens)

	e.GET("/health", h.Health)

	users := e.Group("/api/users")
	users.POST("/register", h.Register)
	users.POST("/send-verification-code", h.SendVerificationCode)
	users.POST("/check-verification-code", h.CheckVerificationCode)
	users.POST("/login", h.Login)
	users.POST("/send-password-reset-code", h.SendPasswordResetCode)
	users.POST("/check-password-reset-code", h.CheckPasswordResetCode)
	users.POST("/refresh-token", h.RefreshToken)
	users.POST("/logout", h.Logout)

	// Authenticated
	users.POST("/delete-user", h.DeleteUser, requireAuth)
	users.POST("/get-user-data", h.GetUserData, requireAuth)
	users.POST("/update-user-profile", h.UpdateUserProfile, requireAuth)
	users.POST("/is-profile-done", h.IsProfileDone, requireAuth)

	cruises := e.Group("/api/cruises", requireAuth)
	cruises.POST("/get-companies", h.GetCompanies)
	cruises.POST("/get-ships-of-company", h.GetShipsOfCompany)
	cruises.POST("/join-cruise", h.JoinCruise)
	cruises.POST("/leave-cruise", h.LeaveCruise)
	cruises.POST("/get-my-cruises", h.GetMyCruises)
	cruises.POST("/get-cruise-feed", h.GetCruiseFeed)
}
