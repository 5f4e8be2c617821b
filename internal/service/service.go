// Package service implements the auth orchestrator: it composes the store
// adapter, the credential hasher, the token minter and the hook dispatcher
// into the register/login/verify/reset/refresh/logout flows. All transition
// logic lives here or in the pure account package; durability lives in repo.
package service

import (
	"errors"
	"time"

	"github.com/super-skeleton/auth-service/internal/account"
	"github.com/super-skeleton/auth-service/internal/hash"
	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/models"
	"github.com/super-skeleton/auth-service/internal/repo"
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrHashingFailure       = errors.New("password hashing failure")
	ErrPasswordResetFailed  = errors.New("password reset failed")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrExpiredRefreshToken  = errors.New("expired refresh token")
	ErrUserNotFoundForToken = errors.New("user not found for token")

	// Admission and reset-token outcomes are decided by the account state
	// machine; aliased here so callers map one package's errors.
	ErrAccountLocked         = account.ErrAccountLocked
	ErrEmailNotVerified      = account.ErrEmailNotVerified
	ErrInvalidOrExpiredToken = account.ErrInvalidOrExpiredToken
)

// Options are fixed at startup; no ambient configuration is read later.
type Options struct {
	AccessTokenTTL           time.Duration
	RefreshTokenTTL          time.Duration
	RequireEmailVerification bool
}

// TokenMinter is the sign/verify/random capability the orchestrator needs;
// the algorithm behind it is swappable without touching any flow.
type TokenMinter interface {
	MintAccessToken(subject string, ttl time.Duration) (string, error)
	VerifyAccessToken(raw string) (string, error)
	MintRefreshToken(ttl time.Duration) (string, time.Time, error)
}

type AuthService struct {
	Repo   *repo.GormRepo
	Hasher hash.Hasher
	Tokens TokenMinter
	Hooks  *hooks.Dispatcher
	Google IdentityExchanger // nil when federation is not configured
	Opts   Options
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type RegisterInput struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// PublicUser is the projection safe to hand to clients.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type LoginResult struct {
	TokenPair
	User PublicUser `json:"user"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
