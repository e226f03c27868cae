package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test_secret_key_1234567890", 24*time.Hour)
	userID := uuid.New()

	token, expiresAt, err := m.GenerateToken(userID, "jane@example.com", "Jane")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "Jane", claims.Name)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTManager_TokensAreUnique(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	userID := uuid.New()

	first, _, err := m.GenerateToken(userID, "a@b.c", "A")
	require.NoError(t, err)
	second, _, err := m.GenerateToken(userID, "a@b.c", "A")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTManager_ValidateToken_Invalid(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	valid, _, err := m.GenerateToken(uuid.New(), "a@b.c", "A")
	require.NoError(t, err)

	expired, _, err := NewJWTManager("secret", -time.Hour).GenerateToken(uuid.New(), "a@b.c", "A")
	require.NoError(t, err)

	wrongSecret, _, err := NewJWTManager("other", time.Hour).GenerateToken(uuid.New(), "a@b.c", "A")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badUserID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "invalid.token.here"},
		{name: "tampered", token: valid + "x"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: wrongSecret},
		{name: "none algorithm", token: noneAlg},
		{name: "malformed user id", token: badUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("S3cret", hash))
	assert.False(t, CheckPasswordHash("", hash))
	assert.False(t, CheckPasswordHash("s3cret", "s3cret"))
}
