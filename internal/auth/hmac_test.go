package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIssueAndVerify(t *testing.T) {
	a, err := NewHMACAuthority("s3cret", time.Hour, testLogger())
	require.NoError(t, err)

	token, err := a.Issue("a@x.com", "a", true)
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.GetUserID())
	assert.Equal(t, "a", claims.Username)
	assert.True(t, claims.Admin)
}

func TestVerifyRejects(t *testing.T) {
	a, err := NewHMACAuthority("s3cret", time.Hour, testLogger())
	require.NoError(t, err)
	other, err := NewHMACAuthority("different", time.Hour, testLogger())
	require.NoError(t, err)

	expired, err := NewHMACAuthority("s3cret", time.Minute, testLogger())
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, err := expired.Issue("a@x.com", "a", false)
	require.NoError(t, err)

	wrongKey, err := other.Issue("a@x.com", "a", false)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "a@x.com", Issuer: issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", wrongKey},
		{"expired", expiredToken},
		{"alg none", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestChainVerifier(t *testing.T) {
	first, _ := NewHMACAuthority("one", time.Hour, testLogger())
	second, _ := NewHMACAuthority("two", time.Hour, testLogger())
	chain := ChainVerifier{first, second}

	token, err := second.Issue("b@x.com", "b", false)
	require.NoError(t, err)

	claims, err := chain.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", claims.Subject)
	assert.NoError(t, chain.Close())
}

func TestNewHMACAuthorityRequiresSecret(t *testing.T) {
	_, err := NewHMACAuthority("", time.Hour, testLogger())
	assert.Error(t, err)
}
