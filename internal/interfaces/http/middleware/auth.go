// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/pkg/auth"
)

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from header
		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		// Validate access token
		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Store account information in context
		c.Set("account_id", claims.AccountID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("cost_tier", claims.CostTier)
		c.Set("token_claims", claims)

		c.Next()
	}
}

// AdminMiddleware ensures the account has the admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if role.(string) != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAccountIDFromContext extracts the account ID from gin context
func GetAccountIDFromContext(c *gin.Context) (uint, bool) {
	accountID, exists := c.Get("account_id")
	if !exists {
		return 0, false
	}
	return accountID.(uint), true
}

// GetUsernameFromContext extracts the username from gin context
func GetUsernameFromContext(c *gin.Context) (string, bool) {
	username, exists := c.Get("username")
	if !exists {
		return "", false
	}
	return username.(string), true
}

// IsAdminFromContext checks for the admin role from gin context
func IsAdminFromContext(c *gin.Context) bool {
	role, exists := c.Get("role")
	if !exists {
		return false
	}
	return role.(string) == "admin"
}

// GetAllowedTiersFromContext derives the caller's permitted selling tiers
// from its cost tier claim. Admins and accounts without a cost tier are
// unrestricted.
func GetAllowedTiersFromContext(c *gin.Context) []pricing.Tier {
	if IsAdminFromContext(c) {
		return pricing.AllowedSellingTiers("")
	}
	costTier, exists := c.Get("cost_tier")
	if !exists {
		return pricing.AllowedSellingTiers("")
	}
	return pricing.AllowedSellingTiers(pricing.Tier(costTier.(string)))
}
