package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc := NewService([]byte("test-secret"), time.Hour)

	token, err := svc.IssueToken("65a1f0c2e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", userID)
}

func TestVerifyTokenRejects(t *testing.T) {
	svc := NewService([]byte("test-secret"), time.Hour)

	expired := NewService([]byte("test-secret"), time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.IssueToken("usr")
	require.NoError(t, err)

	otherKey, err := NewService([]byte("other-secret"), time.Hour).IssueToken("usr")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		ID: "usr",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: "usr"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expiredToken},
		{"wrong signature", otherKey},
		{"none algorithm", noneAlg},
		{"missing expiry", noExpiry},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestNewServiceDefaultsTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewService([]byte("k"), 0).TTL())
}
