package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/model"
)

const currentUserKey = "CurrentUser"

// Auth resolves the bearer token to a user and stores it in the request
// context. Requests without a valid token are rejected; token issuance
// itself is handled outside this service.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token requerido"})
			return
		}

		var user model.User
		if err := db.First(&user, "api_token = ?", token).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token inválido"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	roleSet := map[model.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token requerido"})
			return
		}
		if _, ok := roleSet[user.Rol]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "acceso denegado"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Auth.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

// CurrentRole returns the authenticated user's role, or "anon" when the
// request is unauthenticated.
func CurrentRole(c *gin.Context) string {
	user, ok := CurrentUser(c)
	if !ok {
		return "anon"
	}
	return string(user.Rol)
}
