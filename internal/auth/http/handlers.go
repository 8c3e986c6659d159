package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/auth/domain"
)

// Challenge returns a one-time message for the wallet to sign.
func (h *Handler) Challenge(c *gin.Context) {
	wallet := strings.TrimSpace(c.Query("walletAddress"))
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
		return
	}

	ch, err := h.authService.Challenge(c.Request.Context(), wallet)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWallet) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		h.log.Error("challenge failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
		return
	}
	if strings.TrimSpace(req.Signature) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature is required"})
		return
	}

	res, err := h.authService.Authenticate(c.Request.Context(), domain.AuthenticateRequest{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		UserAgent:     c.Request.UserAgent(),
		IPAddress:     c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWallet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		case errors.Is(err, domain.ErrChallengeNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Challenge expired or not requested"})
		case errors.Is(err, domain.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		default:
			h.log.Error("authentication failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), auth.SessionID(c)); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the current user's profile
func (h *Handler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user data"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.authService.UpdatePreferences(c.Request.Context(), auth.UserID(c), req.Preferences)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("update preferences failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ActiveSessions(c *gin.Context) {
	sessions, err := h.authService.ActiveSessions(c.Request.Context())
	if err != nil {
		h.log.Error("list active sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}
