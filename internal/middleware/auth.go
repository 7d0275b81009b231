package middleware

import (
	"net/http"
	"strings"

	"expertsolve.com/hub/internal/model"
	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens *service.TokenIssuer
}

func NewAuthMiddleware(tokens *service.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}

		// Browsers cannot set headers on websocket upgrades.
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		claims, err := m.tokens.Parse(tokenString)
		if err != nil {
			response.Logger(c).Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(response.KeyUserID, claims.UserID)
		c.Set(response.KeyEmail, claims.Email)
		c.Set(response.KeyUserType, claims.UserType)
		c.Set(response.KeyLogger, response.Logger(c).With("user_id", claims.UserID))
		c.Next()
	}
}

// RequireRole checks the user_type claim only. A role change takes effect
// once the caller refreshes the token.
func (m *AuthMiddleware) RequireRole(message string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := response.GetUserType(c)
		for _, role := range roles {
			if userType == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
	}
}

func (m *AuthMiddleware) RequireExpert() gin.HandlerFunc {
	return m.RequireRole("Expert access required", model.RoleExpert)
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole("Admin access required", model.RoleAdmin)
}
