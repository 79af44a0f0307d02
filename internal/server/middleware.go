package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/carepoint-health/carepoint/internal/auth"
	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/revocation"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionKey      = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrRevokedToken      = errors.New("revoked token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set(sessionKey, sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func abortWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
	respondError(c, statusCode, message)
	c.Abort()
}

// requestIDMiddleware propagates X-Request-ID, generating one when the caller did not
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// JWTAuthMiddleware validates bearer tokens, rejecting revoked ones
func JWTAuthMiddleware(issuer *auth.Issuer, revocations revocation.Store, db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			abortWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			log.Debug().Err(err).Msg("Failed to validate JWT token")
			abortWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error().Err(err).Str("token_id", claims.ID).Msg("Failed to check token revocation")
			abortWithError(c, log, http.StatusInternalServerError, err, "Internal server error")
			return
		}
		if revoked {
			abortWithError(c, log, http.StatusUnauthorized, ErrRevokedToken, "Invalid or expired token")
			return
		}

		// Verify user still exists
		var user models.User
		if err := db.WithContext(c.Request.Context()).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			log.Debug().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			abortWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:    user.ID,
			Email:     user.Email,
			Role:      user.Role,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		})

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			abortWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin() {
			abortWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}
