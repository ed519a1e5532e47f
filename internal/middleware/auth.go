package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/config"
	"mangosense/api/internal/models"
	"mangosense/api/internal/repository"
	"mangosense/api/internal/security"
)

const (
	ContextKeyUser   = "current_user"
	ContextKeyClaims = "access_claims"
)

func abortWithEnvelope(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":   false,
		"message":   message,
		"data":      nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Auth validates the bearer token, loads the backing session and user, and
// rejects anything stale or mismatched.
func Auth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, ok := authenticate(c, cfg, users, sessions)
		if !ok {
			return
		}

		c.Set(ContextKeyClaims, *claims)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// lets anonymous requests through untouched. A malformed token is still
// rejected rather than silently downgraded to anonymous.
func OptionalAuth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		user, claims, ok := authenticate(c, cfg, users, sessions)
		if !ok {
			return
		}

		c.Set(ContextKeyClaims, *claims)
		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

func authenticate(
	c *gin.Context,
	cfg *config.AppConfig,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
) (models.User, *security.AccessClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		abortWithEnvelope(c, http.StatusUnauthorized, "Authentication required")
		return models.User{}, nil, false
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		abortWithEnvelope(c, http.StatusUnauthorized, "Invalid or expired token")
		return models.User{}, nil, false
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		abortWithEnvelope(c, http.StatusUnauthorized, "Session not found")
		return models.User{}, nil, false
	}

	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		abortWithEnvelope(c, http.StatusUnauthorized, "Session mismatch")
		return models.User{}, nil, false
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithEnvelope(c, http.StatusUnauthorized, "User not found")
		return models.User{}, nil, false
	}

	if user.Status != models.UserStatusActive {
		abortWithEnvelope(c, http.StatusForbidden, "Account is suspended")
		return models.User{}, nil, false
	}

	_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

	return user, claims, true
}

// CurrentUser returns the authenticated user set by Auth or OptionalAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
