// Package account holds the security state machine for user records: pure
// decisions over a freshly fetched snapshot, expressed as the partial update
// the store should apply. No I/O happens here.
package account

import (
	"errors"
	"time"

	"github.com/super-skeleton/auth-service/internal/models"
	"github.com/super-skeleton/auth-service/internal/tokens"
)

const (
	// MaxFailedLoginAttempts is the lockout threshold; reaching it locks the
	// account in the same mutation that records the failure.
	MaxFailedLoginAttempts = 5

	VerificationTokenTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour

	verificationTokenBytes = 32
	resetTokenBytes        = 32
)

var (
	ErrAccountLocked         = errors.New("account locked")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// Changes is a column-keyed partial update. A nil value means "unset the
// column" (SQL NULL), which is how token/expiry pairs are cleared together.
type Changes map[string]any

// CheckLoginAdmission rejects locked and, when required, unverified accounts.
// Both checks run before any password comparison.
func CheckLoginAdmission(u *models.User, requireVerified bool) error {
	if u.IsAccountLocked {
		return ErrAccountLocked
	}
	if requireVerified && !u.IsEmailVerified {
		return ErrEmailNotVerified
	}
	return nil
}

// FailedAttempt records one more failed password check. Crossing the
// threshold sets the lock in the same Changes, a single atomic transition.
func FailedAttempt(u *models.User) Changes {
	attempts := u.FailedLoginAttempts + 1
	ch := Changes{"failed_login_attempts": attempts}
	if attempts >= MaxFailedLoginAttempts {
		ch["is_account_locked"] = true
	}
	return ch
}

// SuccessfulLogin resets the failure counter and stamps the login time.
func SuccessfulLogin(now time.Time) Changes {
	return Changes{
		"failed_login_attempts": 0,
		"last_login_at":         now,
	}
}

// IssueVerificationToken generates a fresh email-verification token with a
// 24h window. Used at signup and resend.
func IssueVerificationToken(now time.Time) (string, Changes, error) {
	token, err := tokens.NewSecureToken(verificationTokenBytes)
	if err != nil {
		return "", nil, err
	}
	expiresAt := now.Add(VerificationTokenTTL)
	return token, Changes{
		"email_verification_token":      token,
		"email_verification_expires_at": expiresAt,
	}, nil
}

// ConsumeVerification validates the token state on a user fetched by
// verification token. ok=false (no error) when the pair is absent or
// expired; success marks the email verified and clears both fields.
func ConsumeVerification(u *models.User, now time.Time) (Changes, bool) {
	if u.EmailVerificationToken == nil || u.EmailVerificationExpiresAt == nil {
		return nil, false
	}
	if u.EmailVerificationExpiresAt.Before(now) {
		return nil, false
	}
	return Changes{
		"is_email_verified":             true,
		"email_verification_token":      nil,
		"email_verification_expires_at": nil,
	}, true
}

// IssueResetToken generates a password-reset token with a 1h window.
func IssueResetToken(now time.Time) (string, Changes, error) {
	token, err := tokens.NewSecureToken(resetTokenBytes)
	if err != nil {
		return "", nil, err
	}
	expiresAt := now.Add(PasswordResetTTL)
	return token, Changes{
		"password_reset_token":      token,
		"password_reset_expires_at": expiresAt,
	}, nil
}

// ConsumeReset validates a user fetched by reset token and prescribes the
// password replacement. An expired token yields ErrInvalidOrExpiredToken
// together with cleanup Changes clearing the stale pair. Success replaces
// the hash, clears the pair, zeroes the failure counter and clears the lock
// (the sole unlock path besides manual intervention).
func ConsumeReset(u *models.User, newHash string, now time.Time) (Changes, error) {
	if u.PasswordResetToken == nil || u.PasswordResetExpiresAt == nil {
		return nil, ErrInvalidOrExpiredToken
	}
	if u.PasswordResetExpiresAt.Before(now) {
		cleanup := Changes{
			"password_reset_token":      nil,
			"password_reset_expires_at": nil,
		}
		return cleanup, ErrInvalidOrExpiredToken
	}
	return Changes{
		"password_hash":             newHash,
		"password_reset_token":      nil,
		"password_reset_expires_at": nil,
		"failed_login_attempts":     0,
		"is_account_locked":         false,
	}, nil
}
