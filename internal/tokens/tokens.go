package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrWrongTokenType        = errors.New("wrong token type")
	ErrInvalidDurationFormat = errors.New("invalid duration format")
)

// AccessClaims are the claims carried by a signed access token. The type
// claim lets verification reject any other token smuggled into an access
// slot.
type AccessClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Minter issues and verifies access tokens and generates opaque refresh
// tokens. Now is injectable for expiry tests; nil means time.Now.
type Minter struct {
	AccessSecret []byte
	Now          func() time.Time
}

func (m *Minter) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// MintAccessToken signs a short-lived HS256 token asserting the subject.
func (m *Minter) MintAccessToken(subject string, ttl time.Duration) (string, error) {
	issued := m.now()
	claims := AccessClaims{
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.AccessSecret)
}

// VerifyAccessToken checks signature, expiry and token type, returning the
// subject. The token is never looked up in storage.
func (m *Minter) VerifyAccessToken(raw string) (string, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return m.AccessSecret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	if !tkn.Valid {
		return "", ErrTokenMalformed
	}
	if claims.TokenType != accessTokenType {
		return "", ErrWrongTokenType
	}

	return claims.Subject, nil
}

// MintRefreshToken generates an opaque random refresh token and its absolute
// expiry. The string carries no claims; validity lives in the stored record.
func (m *Minter) MintRefreshToken(ttl time.Duration) (string, time.Time, error) {
	token, err := NewSecureToken(64)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, m.now().Add(ttl), nil
}

// NewSecureToken returns n cryptographically random bytes hex-encoded.
func NewSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secure token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// ParseExpiry converts a human expiry string ("15m", "7d", "30s") to a
// duration. A plain integer is treated as raw milliseconds. The parser is
// pure and locale-independent.
func ParseExpiry(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrInvalidDurationFormat
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 'd':
		unit = 24 * time.Hour
	case 'h':
		unit = time.Hour
	case 'm':
		unit = time.Minute
	case 's':
		unit = time.Second
	default:
		ms, err := strconv.Atoi(s)
		if err != nil {
			return 0, ErrInvalidDurationFormat
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	magnitude, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, ErrInvalidDurationFormat
	}

	return time.Duration(magnitude) * unit, nil
}
