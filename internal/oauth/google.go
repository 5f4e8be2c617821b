// Package oauth implements the Google side of the OAuth2 authorization-code
// flow: code exchange and ID-token verification. CSRF state handling stays
// in the HTTP layer; reconciliation stays in the service layer.
package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/super-skeleton/auth-service/internal/service"
)

const googleIssuer = "https://accounts.google.com"

var (
	ErrIDTokenMissing   = errors.New("google id token missing")
	ErrPayloadMissing   = errors.New("google payload missing")
	ErrDataIncomplete   = errors.New("google data incomplete")
	ErrEmailNotVerified = errors.New("google email not verified")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleExchanger implements service.IdentityExchanger against Google's
// OIDC endpoints. The ID token's signature and audience are verified before
// any claim is trusted.
type GoogleExchanger struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewGoogleExchanger(ctx context.Context, cfg GoogleConfig) (*GoogleExchanger, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}

	return &GoogleExchanger{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (g *GoogleExchanger) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *GoogleExchanger) Exchange(ctx context.Context, code string) (*service.GoogleIdentity, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrIDTokenMissing
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id token verify: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrPayloadMissing
	}

	if idToken.Subject == "" || claims.Email == "" {
		return nil, ErrDataIncomplete
	}
	if !claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &service.GoogleIdentity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		EmailVerified: claims.EmailVerified,
	}, nil
}
