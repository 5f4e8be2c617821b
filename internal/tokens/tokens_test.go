package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMinter(now time.Time) *Minter {
	return &Minter{
		AccessSecret: []byte("test-access-secret"),
		Now:          func() time.Time { return now },
	}
}

func TestMinter_AccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	subject := uuid.NewString()
	m := newTestMinter(time.Now())

	raw, err := m.MintAccessToken(subject, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	got, err := m.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestMinter_AccessTokenExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	m := newTestMinter(issued)

	raw, err := m.MintAccessToken(uuid.NewString(), 15*time.Minute)
	require.NoError(t, err)

	// Advance the injected clock past the ttl.
	m.Now = func() time.Time { return issued.Add(16 * time.Minute) }

	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestMinter_VerifyAccessTokenRejectsMalformed(t *testing.T) {
	t.Parallel()

	m := newTestMinter(time.Now())

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not.a.jwt"},
		{name: "wrong signature", raw: func() string {
			other := &Minter{AccessSecret: []byte("other-secret")}
			raw, err := other.MintAccessToken("sub", time.Minute)
			require.NoError(t, err)
			return raw
		}()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := m.VerifyAccessToken(tt.raw)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestMinter_VerifyAccessTokenRejectsWrongType(t *testing.T) {
	t.Parallel()

	m := newTestMinter(time.Now())

	claims := AccessClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.AccessSecret)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestMinter_MintRefreshToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	m := newTestMinter(now)

	token, expiresAt, err := m.MintRefreshToken(7 * 24 * time.Hour)
	require.NoError(t, err)

	// 64 random bytes hex-encoded.
	assert.Len(t, token, 128)
	assert.Equal(t, now.Add(7*24*time.Hour), expiresAt)

	second, _, err := m.MintRefreshToken(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}

func TestParseExpiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "24h", want: 24 * time.Hour},
		{in: "30s", want: 30 * time.Second},
		{in: "1500", want: 1500 * time.Millisecond},
		{in: "", wantErr: true},
		{in: "d", wantErr: true},
		{in: "x5m", wantErr: true},
		{in: "5w", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseExpiry(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDurationFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
