package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/super-skeleton/auth-service/internal/account"
	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/models"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

const googleProvider = "google"

var (
	ErrGoogleNotConfigured = errors.New("google oauth not configured")

	// ErrAccountExistsDifferentProvider prevents silent account takeover:
	// a federated login may not attach to an email owned by another
	// provider's account (or a password account).
	ErrAccountExistsDifferentProvider = errors.New("account exists with a different provider")
)

// GoogleIdentity is the verified claim set extracted from the provider's
// identity token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// IdentityExchanger turns an authorization code into verified identity
// claims. Narrow on purpose: the orchestrator never sees provider tokens,
// and tests can count exchange calls.
type IdentityExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*GoogleIdentity, error)
}

// LoginWithGoogle exchanges the authorization code, reconciles the identity
// against the account store (creating a verified account on first login) and
// finalizes with the same success transition as password login.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*LoginResult, error) {
	if s.Google == nil {
		return nil, ErrGoogleNotConfigured
	}

	ident, err := s.Google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.reconcileGoogleIdentity(ctx, ident)
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, account.SuccessfulLogin(s.now()))
	if err != nil {
		return nil, fmt.Errorf("success transition: %w", err)
	}
	if updated == nil {
		updated = user
	}

	pair, err := s.issueTokens(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	s.Hooks.Emit(ctx, hooks.EventUserLoggedIn, hooks.Payload{User: updated, Method: googleProvider})

	return &LoginResult{TokenPair: *pair, User: publicUser(updated)}, nil
}

func (s *AuthService) reconcileGoogleIdentity(ctx context.Context, ident *GoogleIdentity) (*models.User, error) {
	user, err := s.Repo.FindUserByProvider(ctx, googleProvider, ident.Subject)
	if err != nil {
		return nil, fmt.Errorf("lookup by provider: %w", err)
	}
	if user != nil {
		return user, nil
	}

	email := strings.ToLower(ident.Email)

	byEmail, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if byEmail != nil {
		if byEmail.Provider == nil || *byEmail.Provider != googleProvider {
			return nil, ErrAccountExistsDifferentProvider
		}
		return byEmail, nil
	}

	return s.createGoogleUser(ctx, ident, email)
}

// createGoogleUser stores a first-time federated account. The password
// column gets an argon2 hash of a fresh random secret: never blank, never
// matching any typed password.
func (s *AuthService) createGoogleUser(ctx context.Context, ident *GoogleIdentity, email string) (*models.User, error) {
	placeholder, err := tokens.NewSecureToken(32)
	if err != nil {
		return nil, err
	}
	placeholderHash, err := s.Hasher.Hash(placeholder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	provider := googleProvider
	providerID := ident.Subject
	user := &models.User{
		ID:              uuid.NewString(),
		Email:           email,
		PasswordHash:    placeholderHash,
		FirstName:       ident.FirstName,
		LastName:        ident.LastName,
		IsEmailVerified: true, // verified by the provider
		Provider:        &provider,
		ProviderID:      &providerID,
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}

	return user, nil
}
