package middleware

import (
	"strings"

	"food-ordering-backend/helpers"

	"github.com/gin-gonic/gin"
)

// Authentication validates the bearer token and stores its claims on the
// request context.
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			helpers.RespondError(c, helpers.ErrUnauthorized("authentication token required"))
			c.Abort()
			return
		}
		claims, err := helpers.ValidateToken(token)
		if err != nil {
			helpers.RespondError(c, helpers.ErrUnauthorized("invalid or expired token"))
			c.Abort()
			return
		}
		c.Set("userId", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("restaurantId", claims.RestaurantID)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		helpers.RespondError(c, helpers.ErrForbidden("insufficient permissions"))
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Older clients send the raw token in a "token" header.
	return c.GetHeader("token")
}
