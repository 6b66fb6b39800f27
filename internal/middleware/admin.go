package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/liquidity-lens/internal/config"
)

const devAdminKey = "admin-dev-key-change-in-production"

// AdminMiddleware provides admin authentication middleware
type AdminMiddleware struct {
	apiKey  string
	keyHash []byte
}

// NewAdminMiddleware creates admin auth from the security config. A bcrypt
// hash takes precedence over a plain key; with neither set the development key is used.
func NewAdminMiddleware(cfg config.SecurityConfig) *AdminMiddleware {
	am := &AdminMiddleware{apiKey: cfg.AdminAPIKey}
	if cfg.AdminKeyHash != "" {
		am.keyHash = []byte(cfg.AdminKeyHash)
	}
	if am.apiKey == "" && am.keyHash == nil {
		am.apiKey = devAdminKey
	}
	return am
}

// HashAdminKey returns the bcrypt hash to store as security.admin_key_hash.
func HashAdminKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RequireAdminAuth middleware validates admin API keys
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.ValidateAdminKey(extractAdminKey(c)) {
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Valid admin API key required for this endpoint",
		})
		c.Abort()
	}
}

// ValidateAdminKey validates an admin API key
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if key == "" {
		return false
	}
	if am.keyHash != nil {
		return bcrypt.CompareHashAndPassword(am.keyHash, []byte(key)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(am.apiKey)) == 1
}

// extractAdminKey reads the key from a Bearer token or the X-API-Key header.
func extractAdminKey(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			return tokenParts[1]
		}
	}
	return c.GetHeader("X-API-Key")
}
