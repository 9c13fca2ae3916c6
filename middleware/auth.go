// middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/auth"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

// TokenVerifier is implemented by service.AuthService.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores the identity, token
// id and expiry on the gin context.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			logger.Debug("Missing bearer token", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			util.HandleError(c, "Failed to verify token", err)
			c.Abort()
			return
		}

		c.Set(util.ContextIdentityKey, claims.Identity())
		c.Set(util.ContextTokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(util.ContextTokenExpKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated identity
// holds one of roles. It must run after Authenticate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := util.GetIdentityFromContext(c)
		if !ok {
			util.HandleError(c, "Authentication required", echo_errors.ErrUnauthenticated)
			c.Abort()
			return
		}
		if !identity.HasRole(roles...) {
			logger.Warn("Role not permitted",
				zap.Int64("userID", identity.ID),
				zap.String("role", identity.Role),
				zap.Strings("required", roles),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
