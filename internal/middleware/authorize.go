package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mangosense/api/internal/models"
)

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithEnvelope(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			abortWithEnvelope(c, http.StatusForbidden, "Admin access required")
			return
		}

		c.Next()
	}
}
