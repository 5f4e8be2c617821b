package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/super-skeleton/auth-service/internal/tokens"
)

const userIDContextKey = "userID"

// RequireAuth admits requests bearing a valid access token and stashes the
// subject in the echo context. The token is verified by signature only,
// never looked up in storage.
func RequireAuth(minter *tokens.Minter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}

			subject, err := minter.VerifyAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired access token"})
			}

			c.Set(userIDContextKey, subject)
			return next(c)
		}
	}
}
