package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/roles"
)

func testUser() *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: "01J9Z6V3K2ZB8Q2M4N6P8R0T2V"},
		Email:     "house@example.com",
		Role:      roles.Doctor,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", 7*24*time.Hour)
	issuer.SetClock(func() time.Time { return now })

	issued, err := issuer.GenerateToken(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, now.Add(7*24*time.Hour), issued.ExpiresAt)

	claims, err := issuer.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "01J9Z6V3K2ZB8Q2M4N6P8R0T2V", claims.UserID)
	assert.Equal(t, "01J9Z6V3K2ZB8Q2M4N6P8R0T2V", claims.Subject)
	assert.Equal(t, roles.Doctor, claims.Role)
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	a, err := issuer.GenerateToken(testUser())
	require.NoError(t, err)
	b, err := issuer.GenerateToken(testUser())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidate_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour)
	issuer.SetClock(func() time.Time { return now })

	issued, err := issuer.GenerateToken(testUser())
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Second)
	_, err = issuer.ValidateToken(issued.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	issued, err := NewIssuer("secret", time.Hour).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).ValidateToken(issued.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidate_RejectsMissingExpiryAndJTI(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti"},
	})
	signed, err := noExp.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.ValidateToken(signed)
	assert.Error(t, err)

	noJTI := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err = noJTI.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.ValidateToken(signed)
	assert.ErrorContains(t, err, "missing jti")
}

func TestEmptySecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour).GenerateToken(testUser())
	assert.ErrorIs(t, err, ErrSecretNotInitialized)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, VerifyPassword("secret1", hash))
	assert.Error(t, VerifyPassword("secret2", hash))
}

func TestSessionData_IsAdmin(t *testing.T) {
	assert.True(t, (&SessionData{Role: roles.Admin}).IsAdmin())
	assert.False(t, (&SessionData{Role: roles.Doctor}).IsAdmin())
}
