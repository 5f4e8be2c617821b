package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/super-skeleton/auth-service/internal/tokens"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	OAuthHandler *OAuthHTTP
	Minter       *tokens.Minter
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")

	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/verify-email/:token", d.AuthHandler.VerifyEmail)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.POST("/resend-verification-email", d.AuthHandler.ResendVerificationEmail)

	auth.GET("/google", d.OAuthHandler.GoogleLogin)
	auth.GET("/google/callback", d.OAuthHandler.GoogleCallback)

	private := auth.Group("")
	private.Use(RequireAuth(d.Minter))
	private.GET("/me", d.AuthHandler.Me)
}
