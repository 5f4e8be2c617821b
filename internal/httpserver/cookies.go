package httpserver

import (
	"net/http"
	"time"
)

const (
	oauthStateCookie   = "ss_oauth_state"
	accessTokenCookie  = "ss_access_token"
	refreshTokenCookie = "ss_refresh_token"

	// The refresh cookie is scoped to the one endpoint that may read it.
	refreshCookiePath = "/auth/refresh-token"

	oauthStateTTL = 10 * time.Minute
)

func newCookie(name, value, path string, ttl time.Duration, httpOnly, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: httpOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func deleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
