package middleware

import (
	"net/http"
	"strings"

	"caredesk/config"
	"caredesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuthAdminMiddleware admits requests bearing an admin token signed with ADMIN_JWT_SECRET.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return AdminAuthWith(func() string { return config.AppConfig.AdminJWTSecret })
}

// AdminAuthWith reads the signing secret on every request so config reloads apply.
func AdminAuthWith(secret func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, err := utils.ValidateAdminToken(secret(), tokenString)
		if err != nil {
			zap.L().Warn("Rejected admin token", zap.String("ip", getClientIP(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("adminID", subject)
		c.Set("isAdmin", true)
		c.Next()
	}
}
