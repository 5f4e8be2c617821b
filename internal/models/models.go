package models

import (
	"time"
)

// User is an authentication principal. Email and Username are stored
// lowercase; the unique indexes therefore give case-insensitive uniqueness.
// A token/expiry pair is set or cleared together, never independently.
type User struct {
	ID                         string     `gorm:"primaryKey;size:36"   json:"id"`
	Email                      string     `gorm:"uniqueIndex;not null" json:"email"`
	Username                   *string    `gorm:"uniqueIndex"          json:"username,omitempty"`
	PasswordHash               string     `gorm:"not null"             json:"-"`
	FirstName                  string     `json:"first_name,omitempty"`
	LastName                   string     `json:"last_name,omitempty"`
	IsEmailVerified            bool       `gorm:"default:false"        json:"is_email_verified"`
	EmailVerificationToken     *string    `gorm:"index"                json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
	PasswordResetToken         *string    `gorm:"index"                json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	IsAccountLocked            bool       `gorm:"default:false"        json:"-"`
	FailedLoginAttempts        int        `gorm:"default:0"            json:"-"`
	LastLoginAt                *time.Time `json:"-"`
	Provider                   *string    `gorm:"index:idx_users_provider_identity" json:"-"`
	ProviderID                 *string    `gorm:"index:idx_users_provider_identity" json:"-"`
	CreatedAt                  time.Time  `json:"-"`
	UpdatedAt                  time.Time  `json:"-"`
}

// RefreshToken is one issued rotation-capable session credential. Consumed
// or revoked tokens keep their row with ExpiresAt forced to the Unix epoch,
// which preserves an audit trail and keeps replays detectable.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	Token     string    `gorm:"uniqueIndex;not null;size:128" json:"-"`
	UserID    string    `gorm:"index;not null;size:36"        json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"                      json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
