package service

import (
	"context"
	"fmt"

	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/models"
)

// issueTokens mints an access/refresh pair and persists the refresh record.
func (s *AuthService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.Tokens.MintAccessToken(userID, s.Opts.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := s.Tokens.MintRefreshToken(s.Opts.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	rec := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		ExpiresAt: refreshExpiresAt,
	}
	if err := s.Repo.CreateRefreshToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  s.now().Add(s.Opts.AccessTokenTTL),
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh rotates a refresh token: the presented token is invalidated by a
// conditional update before a new pair is issued, so two concurrent uses of
// the same token produce at most one winner and any replay of a consumed
// token fails as invalid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	now := s.now()

	rec, err := s.Repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec == nil {
		return nil, ErrInvalidRefreshToken
	}

	// A sentinel expiry means the token was already consumed or revoked:
	// that is a replay, not a natural expiry.
	if rec.ExpiresAt.Unix() <= 0 {
		return nil, ErrInvalidRefreshToken
	}

	if rec.ExpiresAt.Before(now) {
		if err := s.Repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
			logging.FromContext(ctx).Error("expired_refresh_cleanup_failed", "error", err)
		}
		return nil, ErrExpiredRefreshToken
	}

	won, err := s.Repo.ConsumeRefreshToken(ctx, refreshToken, now)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !won {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.FindUserByID(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup token owner: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFoundForToken
	}

	return s.issueTokens(ctx, user.ID)
}

// Logout invalidates the presented refresh token. Unknown tokens succeed
// silently; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rec, err := s.Repo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if rec == nil {
		return nil
	}

	if err := s.Repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("invalidate refresh token: %w", err)
	}

	s.Hooks.Emit(ctx, hooks.EventUserLoggedOut, hooks.Payload{
		UserID:       rec.UserID,
		RefreshToken: refreshToken,
	})

	return nil
}
