package middlewares

import (
	"RetinaCare/models"
	"RetinaCare/utils"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextKey defines a custom context key type to store user details in the context.
type contextKey string

const (
	userIDKey   contextKey = "userID"
	userRoleKey contextKey = "userRole"
)

// TokenAuthMiddleware validates the access token and adds the caller's
// identity to the request context. Role strings outside the closed set are
// rejected here, at the boundary; capability decisions happen in the access
// guard, not in middleware.
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.DefaultQuery("accessToken", "")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing access token"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		role, ok := models.ParseRole(claims.Role)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unrecognized role"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, userRoleKey, role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ExtractUserIDFromContext retrieves the userID from the context.
func ExtractUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ExtractUserRoleFromContext retrieves the user role from the context.
func ExtractUserRoleFromContext(ctx context.Context) (models.Role, error) {
	userRole, ok := ctx.Value(userRoleKey).(models.Role)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	return userRole, nil
}
