package http

import (
	"context"

	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/auth/domain"
)

// AuthService is what the handlers need from the auth service.
type AuthService interface {
	Challenge(ctx context.Context, wallet string) (*domain.Challenge, error)
	Authenticate(ctx context.Context, req domain.AuthenticateRequest) (*domain.AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs map[string]interface{}) (*domain.User, error)
	ActiveSessions(ctx context.Context) ([]domain.Session, error)
}

type Handler struct {
	authService AuthService
	log         *zap.Logger
}

func New(authService AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{authService: authService, log: log.Named("auth.http")}
}

type authenticateRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
}

type preferencesRequest struct {
	Preferences map[string]interface{} `json:"preferences" binding:"required"`
}
