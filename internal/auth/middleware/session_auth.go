package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/auth/domain"
)

// SessionResolver turns a bearer token into its live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}

// RequireSession validates the bearer token and its server-side session and
// stores the caller's identity in the context.
func RequireSession(resolver SessionResolver, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		session, err := resolver.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			return
		case errors.Is(err, domain.ErrSessionNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		case errors.Is(err, domain.ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		default:
			log.Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(auth.CtxUserID, session.UserID)
		c.Set(auth.CtxWallet, session.WalletAddress)
		c.Set(auth.CtxSessionID, session.ID)
		c.Set(auth.CtxIsAdmin, session.IsAdmin)
		c.Next()
	}
}

// RequireAdmin must run after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
