package middleware

import (
	"net/http"
	"strings"

	"terangaride/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and sets the caller's identity on
// the request context.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrInvalidToken})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_type", claims.UserType)
		c.Set("phone", claims.Phone)

		c.Next()
	}
}

// AdminRequired ensures the caller is an admin
func AdminRequired() gin.HandlerFunc {
	return requireUserType("admin", "Admin access required")
}

// DriverRequired ensures the caller is a driver
func DriverRequired() gin.HandlerFunc {
	return requireUserType("driver", "Driver access required")
}

func requireUserType(expected, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType, exists := c.Get("user_type")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User type not found"})
			c.Abort()
			return
		}

		userTypeStr, ok := userType.(string)
		if !ok || userTypeStr != expected {
			c.JSON(http.StatusForbidden, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Next()
	}
}
