package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID    = "user_id"
	CtxWallet    = "wallet_address"
	CtxSessionID = "session_id"
	CtxIsAdmin   = "is_admin"
)

// UserID extracts the authenticated user id from the Gin context.
// This is set by the session middleware.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

func Wallet(c *gin.Context) string {
	return c.GetString(CtxWallet)
}

func SessionID(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(CtxIsAdmin)
}
