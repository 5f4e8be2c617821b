package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/super-skeleton/auth-service/internal/account"
	"github.com/super-skeleton/auth-service/internal/hash"
	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/models"
	"github.com/super-skeleton/auth-service/internal/repo"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestService(t *testing.T, requireVerified bool) (*AuthService, *fakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every pooled connection to :memory: would get its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}

	svc := &AuthService{
		Repo:   repo.New(db),
		Hasher: hash.NewArgon2(),
		Tokens: &tokens.Minter{AccessSecret: []byte("test-secret"), Now: clock.Now},
		Hooks:  hooks.New(),
		Opts: Options{
			AccessTokenTTL:           15 * time.Minute,
			RefreshTokenTTL:          7 * 24 * time.Hour,
			RequireEmailVerification: requireVerified,
		},
		Now: clock.Now,
	}
	return svc, clock
}

func mustRegister(t *testing.T, svc *AuthService, email, password string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	return u
}

func TestRegister_IssuesVerificationToken(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t, true)

	var emitted hooks.Payload
	svc.Hooks.On(hooks.EventUserRegistered, func(_ context.Context, p hooks.Payload) {
		emitted = p
	})

	u := mustRegister(t, svc, "New@Example.COM", "some-password")

	assert.Equal(t, "new@example.com", u.Email)
	assert.False(t, u.IsEmailVerified)
	require.NotNil(t, u.EmailVerificationToken)
	require.NotNil(t, u.EmailVerificationExpiresAt)
	assert.Equal(t, clock.now.Add(account.VerificationTokenTTL), u.EmailVerificationExpiresAt.UTC())

	require.NotNil(t, emitted.User)
	assert.Equal(t, *u.EmailVerificationToken, emitted.Token)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	mustRegister(t, svc, "dup@example.com", "some-password")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "DUP@EXAMPLE.COM",
		Password: "another-password",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin_UnknownAndWrongPasswordIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	mustRegister(t, svc, "a@example.com", "right-password")
	ctx := context.Background()

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "right-password")
	_, wrongErr := svc.Login(ctx, "a@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestLogin_LockoutAtThreshold(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	u := mustRegister(t, svc, "locked@example.com", "right-password")
	ctx := context.Background()

	for i := 0; i < account.MaxFailedLoginAttempts; i++ {
		_, err := svc.Login(ctx, "locked@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := svc.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAccountLocked)
	assert.Equal(t, account.MaxFailedLoginAttempts, stored.FailedLoginAttempts)

	// The lock holds even for the correct password.
	_, err = svc.Login(ctx, "locked@example.com", "right-password")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLogin_SuccessResetsFailureCounter(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t, false)
	u := mustRegister(t, svc, "count@example.com", "right-password")
	ctx := context.Background()

	for i := 0; i < account.MaxFailedLoginAttempts-1; i++ {
		_, err := svc.Login(ctx, "count@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	result, err := svc.Login(ctx, "count@example.com", "right-password")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	stored, err := svc.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LastLoginAt)
	assert.WithinDuration(t, clock.now, *stored.LastLoginAt, time.Second)
}

func TestLogin_RequiresVerifiedEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, true)
	u := mustRegister(t, svc, "v@example.com", "some-password")
	ctx := context.Background()

	_, err := svc.Login(ctx, "v@example.com", "some-password")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	ok, err := svc.VerifyEmail(ctx, *u.EmailVerificationToken)
	require.NoError(t, err)
	require.True(t, ok)

	result, err := svc.Login(ctx, "v@example.com", "some-password")
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.User.ID)
}

func TestVerifyEmail_ExpiredAndReplayedTokens(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t, true)
	ctx := context.Background()

	u := mustRegister(t, svc, "exp@example.com", "some-password")
	token := *u.EmailVerificationToken

	clock.Advance(account.VerificationTokenTTL + time.Minute)
	ok, err := svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	// A fresh token works exactly once.
	u2 := mustRegister(t, svc, "fresh@example.com", "some-password")
	token2 := *u2.EmailVerificationToken

	ok, err = svc.VerifyEmail(ctx, token2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyEmail(ctx, token2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordReset_EndToEnd(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	ctx := context.Background()
	u := mustRegister(t, svc, "reset@example.com", "old-password")

	var resetToken string
	svc.Hooks.On(hooks.EventPasswordResetRequested, func(_ context.Context, p hooks.Payload) {
		resetToken = p.Token
	})

	require.NoError(t, svc.RequestPasswordReset(ctx, "reset@example.com"))
	require.NotEmpty(t, resetToken)

	require.NoError(t, svc.ResetPassword(ctx, resetToken, "new-password"))

	_, err := svc.Login(ctx, "reset@example.com", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := svc.Login(ctx, "reset@example.com", "new-password")
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.User.ID)
}

func TestPasswordReset_UnlocksAccount(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	ctx := context.Background()
	u := mustRegister(t, svc, "relock@example.com", "old-password")

	for i := 0; i < account.MaxFailedLoginAttempts; i++ {
		_, err := svc.Login(ctx, "relock@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := svc.Login(ctx, "relock@example.com", "old-password")
	require.ErrorIs(t, err, ErrAccountLocked)

	var resetToken string
	svc.Hooks.On(hooks.EventPasswordResetRequested, func(_ context.Context, p hooks.Payload) {
		resetToken = p.Token
	})
	require.NoError(t, svc.RequestPasswordReset(ctx, "relock@example.com"))
	require.NoError(t, svc.ResetPassword(ctx, resetToken, "new-password"))

	stored, err := svc.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAccountLocked)
	assert.Equal(t, 0, stored.FailedLoginAttempts)

	_, err = svc.Login(ctx, "relock@example.com", "new-password")
	assert.NoError(t, err)
}

func TestPasswordReset_ExpiredTokenClearedAndRejected(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t, false)
	ctx := context.Background()
	u := mustRegister(t, svc, "stale@example.com", "old-password")

	var resetToken string
	svc.Hooks.On(hooks.EventPasswordResetRequested, func(_ context.Context, p hooks.Payload) {
		resetToken = p.Token
	})
	require.NoError(t, svc.RequestPasswordReset(ctx, "stale@example.com"))

	clock.Advance(account.PasswordResetTTL + time.Minute)

	err := svc.ResetPassword(ctx, resetToken, "new-password")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	// The stale pair is cleared as a side effect of the failed attempt.
	stored, err := svc.Repo.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpiresAt)

	// And the old password still works.
	_, err = svc.Login(ctx, "stale@example.com", "old-password")
	assert.NoError(t, err)
}

func TestRequestPasswordReset_UnknownEmailSilent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)

	emitted := false
	svc.Hooks.On(hooks.EventPasswordResetRequested, func(_ context.Context, _ hooks.Payload) {
		emitted = true
	})

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.False(t, emitted)
}

func TestResendVerificationEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, true)
	ctx := context.Background()
	u := mustRegister(t, svc, "again@example.com", "some-password")
	oldToken := *u.EmailVerificationToken

	var resent hooks.Payload
	count := 0
	svc.Hooks.On(hooks.EventVerificationResent, func(_ context.Context, p hooks.Payload) {
		resent = p
		count++
	})

	require.NoError(t, svc.ResendVerificationEmail(ctx, "again@example.com"))
	require.Equal(t, 1, count)
	assert.NotEqual(t, oldToken, resent.Token)

	// The superseded token no longer verifies; the new one does.
	ok, err := svc.VerifyEmail(ctx, oldToken)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyEmail(ctx, resent.Token)
	require.NoError(t, err)
	assert.True(t, ok)

	// Verified accounts and unknown emails are silent no-ops.
	require.NoError(t, svc.ResendVerificationEmail(ctx, "again@example.com"))
	require.NoError(t, svc.ResendVerificationEmail(ctx, "ghost@example.com"))
	assert.Equal(t, 1, count)
}

func TestGetCurrentUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)
	ctx := context.Background()
	u := mustRegister(t, svc, "me@example.com", "some-password")

	pub, err := svc.GetCurrentUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, pub)
	assert.Equal(t, u.Email, pub.Email)

	missing, err := svc.GetCurrentUser(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
