package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultOrigin = "http://localhost:3000"

// SecureCORS returns CORS middleware for the given origins. The wildcard
// origin is dropped in production.
func SecureCORS(origins []string, appEnv string) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" && appEnv == "production" {
			continue
		}
		allowed = append(allowed, origin)
	}
	if len(allowed) == 0 {
		allowed = []string{defaultOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowed,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
