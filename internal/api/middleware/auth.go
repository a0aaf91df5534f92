// Package middleware provides HTTP middleware for the Mailcast API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/logger"
)

// APIKeyAuth validates the bearer token in the Authorization header against
// apiKey using a constant-time comparison. An empty apiKey disables the check.
func APIKeyAuth(apiKey string, security *logger.SecurityLogger) echo.MiddlewareFunc {
	if apiKey == "" && security != nil {
		security.Error("API_KEY not set - API is UNSECURED")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}

			path := c.Path()
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if security != nil {
					security.AuthFailure(c.RealIP(), path, "missing authorization header")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "missing authorization header",
					"code":  "UNAUTHORIZED",
				})
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				if security != nil {
					security.AuthFailure(c.RealIP(), path, "invalid API key")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "invalid API key",
					"code":  "UNAUTHORIZED",
				})
			}

			return next(c)
		}
	}
}
