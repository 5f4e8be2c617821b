package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/super-skeleton/auth-service/internal/account"
	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/models"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

// Register creates an account, issues its email-verification token and
// emits userRegistered. Email uniqueness is case-insensitive.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.ToLower(in.Email)

	existing, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	passwordHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	now := s.now()
	verificationToken, err := tokens.NewSecureToken(32)
	if err != nil {
		return nil, err
	}
	verificationExpiry := now.Add(account.VerificationTokenTTL)

	user := &models.User{
		ID:                         uuid.NewString(),
		Email:                      email,
		PasswordHash:               passwordHash,
		FirstName:                  in.FirstName,
		LastName:                   in.LastName,
		IsEmailVerified:            false,
		EmailVerificationToken:     &verificationToken,
		EmailVerificationExpiresAt: &verificationExpiry,
	}
	if in.Username != "" {
		username := strings.ToLower(in.Username)
		user.Username = &username
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		l.Error("register_failed", "reason", "create user", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Hooks.Emit(ctx, hooks.EventUserRegistered, hooks.Payload{User: user, Token: verificationToken})

	return user, nil
}

// Login authenticates by email or username. Unknown identifiers and wrong
// passwords produce the identical ErrInvalidCredentials; lockout and
// verification state are checked before the password comparison.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("lookup by identifier: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := account.CheckLoginAdmission(user, s.Opts.RequireEmailVerification); err != nil {
		return nil, err
	}

	if !s.Hasher.Verify(user.PasswordHash, password) {
		if _, updErr := s.Repo.UpdateUserFields(ctx, user.ID, account.FailedAttempt(user)); updErr != nil {
			l.Error("failed_attempt_update_failed", "user_id", user.ID, "error", updErr)
		}
		return nil, ErrInvalidCredentials
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, account.SuccessfulLogin(s.now()))
	if err != nil {
		return nil, fmt.Errorf("success transition: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("success transition: user %s vanished", user.ID)
	}

	pair, err := s.issueTokens(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	s.Hooks.Emit(ctx, hooks.EventUserLoggedIn, hooks.Payload{User: updated, Method: "password"})

	return &LoginResult{TokenPair: *pair, User: publicUser(updated)}, nil
}

// VerifyEmail consumes a verification token. Absent, unknown and expired
// tokens all return false without error; only structural failures error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	user, err := s.Repo.FindUserByVerificationToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("lookup by verification token: %w", err)
	}
	if user == nil {
		return false, nil
	}

	changes, ok := account.ConsumeVerification(user, s.now())
	if !ok {
		return false, nil
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, changes)
	if err != nil {
		return false, fmt.Errorf("apply verification: %w", err)
	}
	if updated == nil {
		logging.FromContext(ctx).Error("verification_update_lost_user", "user_id", user.ID)
		return false, nil
	}

	return true, nil
}

// RequestPasswordReset issues a reset token when the account exists and
// stays silent otherwise; the caller must answer identically either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_request")

	user, err := s.Repo.FindUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("lookup by email: %w", err)
	}
	if user == nil {
		l.Info("reset_requested_for_unknown_email")
		return nil
	}

	token, changes, err := account.IssueResetToken(s.now())
	if err != nil {
		return err
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, changes)
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if updated == nil {
		l.Error("reset_token_update_lost_user", "user_id", user.ID)
		return nil
	}

	s.Hooks.Emit(ctx, hooks.EventPasswordResetRequested, hooks.Payload{User: updated, Token: token})

	return nil
}

// ResetPassword consumes a reset token, replaces the password and clears the
// lockout state. A found-but-expired token is cleared as a side mutation.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset")

	user, err := s.Repo.FindUserByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("lookup by reset token: %w", err)
	}
	if user == nil {
		return ErrInvalidOrExpiredToken
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		l.Error("reset_failed", "reason", "cannot hash password", "error", err)
		return fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}

	changes, consumeErr := account.ConsumeReset(user, newHash, s.now())
	if consumeErr != nil {
		if changes != nil {
			if _, cleanupErr := s.Repo.UpdateUserFields(ctx, user.ID, changes); cleanupErr != nil {
				l.Error("expired_reset_cleanup_failed", "user_id", user.ID, "error", cleanupErr)
			}
		}
		return consumeErr
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, changes)
	if err != nil {
		return fmt.Errorf("apply reset: %w", err)
	}
	if updated == nil {
		l.Error("reset_update_lost_user", "user_id", user.ID)
		return ErrPasswordResetFailed
	}

	s.Hooks.Emit(ctx, hooks.EventPasswordResetCompleted, hooks.Payload{User: updated})

	return nil
}

// ResendVerificationEmail re-issues the verification token. Unknown emails
// and already-verified accounts are silent no-ops: no error, no event.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.resend_verification")

	user, err := s.Repo.FindUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("lookup by email: %w", err)
	}
	if user == nil {
		l.Info("resend_requested_for_unknown_email")
		return nil
	}
	if user.IsEmailVerified {
		return nil
	}

	token, changes, err := account.IssueVerificationToken(s.now())
	if err != nil {
		return err
	}

	updated, err := s.Repo.UpdateUserFields(ctx, user.ID, changes)
	if err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}
	if updated == nil {
		l.Error("resend_update_lost_user", "user_id", user.ID)
		return nil
	}

	s.Hooks.Emit(ctx, hooks.EventVerificationResent, hooks.Payload{User: updated, Token: token})

	return nil
}

// GetCurrentUser projects an account to its public fields; nil when the
// account no longer exists.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup by id: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	pub := publicUser(user)
	return &pub, nil
}
