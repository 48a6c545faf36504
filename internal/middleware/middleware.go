package middleware

import (
	"net/http"
	"strings"

	"coin-heist/internal/service"
	"coin-heist/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserID = "userID"
	ContextRoles  = "roles"
)

// JWTAuthMiddleware puts the caller's user id and roles into the context.
func JWTAuthMiddleware(auth service.AuthService, log pkg.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole lets the request through only if the caller holds one of allowed.
func RequireRole(allowed []string, log pkg.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(ContextRoles)
		if !service.HasRole(roles, allowed) {
			log.Warn("admin command rejected",
				zap.String("userID", c.GetString(ContextUserID)),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "unauthorized",
				"message":   service.ErrUnauthorized.Error(),
				"ephemeral": true,
			})
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     "unauthenticated",
		"message":   msg,
		"ephemeral": true,
	})
}
