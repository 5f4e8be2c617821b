package httpserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/oauth"
	"github.com/super-skeleton/auth-service/internal/service"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

// OAuthHTTP serves the browser-facing Google flow. The service's token pair
// is delivered as cookies and the browser is redirected back to the app, so
// both endpoints answer with 302s rather than JSON.
type OAuthHTTP struct {
	Svc *service.AuthService

	SuccessRedirectURL string
	FailureRedirectURL string
}

// GoogleLogin starts the flow: a random state value is stored in a short
// lived cookie and carried to Google, to be compared on the way back.
func (h *OAuthHTTP) GoogleLogin(c echo.Context) error {
	if h.Svc.Google == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "google login is not configured"})
	}

	state, err := tokens.NewSecureToken(16)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("oauth_state_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	c.SetCookie(newCookie(oauthStateCookie, state, "/", oauthStateTTL, true, h.secure(c)))

	return c.Redirect(http.StatusFound, h.Svc.Google.AuthCodeURL(state))
}

// GoogleCallback finishes the flow. The state check happens before any call
// to the provider; a mismatch means the round trip cannot be trusted.
func (h *OAuthHTTP) GoogleCallback(c echo.Context) error {
	secure := h.secure(c)
	stateCookie, cookieErr := c.Cookie(oauthStateCookie)

	// One-shot: the state cookie is cleared no matter how the rest goes.
	c.SetCookie(deleteCookie(oauthStateCookie, "/", secure))

	if h.Svc.Google == nil {
		return h.failRedirect(c, "not_configured", "Google login is not configured")
	}

	code := c.QueryParam("code")
	if code == "" {
		return h.failRedirect(c, "invalid_request", "Missing authorization code")
	}

	state := c.QueryParam("state")
	if cookieErr != nil || stateCookie.Value == "" || state == "" || state != stateCookie.Value {
		return h.failRedirect(c, "state_mismatch", "OAuth state validation failed")
	}

	result, err := h.Svc.LoginWithGoogle(c.Request().Context(), code)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("google_login_failed", "error", err)
		return h.failRedirect(c, googleErrorCode(err), "Google login failed")
	}

	accessTTL := h.Svc.Opts.AccessTokenTTL
	refreshTTL := h.Svc.Opts.RefreshTokenTTL
	c.SetCookie(newCookie(accessTokenCookie, result.AccessToken, "/", accessTTL, false, secure))
	c.SetCookie(newCookie(refreshTokenCookie, result.RefreshToken, refreshCookiePath, refreshTTL, true, secure))

	return c.Redirect(http.StatusFound, h.SuccessRedirectURL)
}

func (h *OAuthHTTP) failRedirect(c echo.Context, code, message string) error {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)

	target := h.FailureRedirectURL
	if u, err := url.Parse(target); err == nil {
		u.RawQuery = q.Encode()
		target = u.String()
	}

	return c.Redirect(http.StatusFound, target)
}

func googleErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrAccountExistsDifferentProvider):
		return "account_exists_different_provider"
	case errors.Is(err, oauth.ErrEmailNotVerified):
		return "google_email_not_verified"
	case errors.Is(err, oauth.ErrIDTokenMissing):
		return "google_id_token_missing"
	case errors.Is(err, oauth.ErrPayloadMissing):
		return "google_payload_missing"
	case errors.Is(err, oauth.ErrDataIncomplete):
		return "google_data_incomplete"
	default:
		return "login_failed"
	}
}

func (h *OAuthHTTP) secure(c echo.Context) bool {
	return c.Scheme() == "https"
}
