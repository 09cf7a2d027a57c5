// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"net/http"

	"codeberg.org/typecode/accounts/internal/config"
	appmw "codeberg.org/typecode/accounts/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", bodyLimit(cfg))))
	if len(cfg.CORS.AllowOrigins) > 0 {
		e.Use(corsMiddleware(cfg.CORS.AllowOrigins))
	}
	e.Use(appmw.Locale())
}

func bodyLimit(cfg *config.Config) int {
	if cfg.Server.MaxBodySize <= 0 {
		return 1
	}
	return cfg.Server.MaxBodySize
}

// corsMiddleware allows the listed origins to send the refresh cookie.
func corsMiddleware(origins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderAcceptEncoding, "Accept-Language"},
		AllowCredentials: true,
	})
}
