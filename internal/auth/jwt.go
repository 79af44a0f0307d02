package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/roles"
)

// ErrSecretNotInitialized is returned when the issuer has no signing key
var ErrSecretNotInitialized = errors.New("JWT secret not initialized")

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   roles.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token plus the metadata needed to revoke it later
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Issuer signs and validates HS256 bearer tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer with the given secret and token lifetime
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for issuing and validating
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// TTL returns the lifetime of issued tokens
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// GenerateToken creates a new JWT token for a user
func (i *Issuer) GenerateToken(user *models.User) (*IssuedToken, error) {
	if len(i.secret) == 0 {
		return nil, ErrSecretNotInitialized
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	id := ulid.Make().String()

	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{
		Token:     signed,
		ID:        id,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (i *Issuer) ValidateToken(tokenString string) (*JWTClaims, error) {
	if len(i.secret) == 0 {
		return nil, ErrSecretNotInitialized
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.ID == "" {
			return nil, fmt.Errorf("invalid token: missing jti")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
