package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/auth"
	"github.com/smithos/smithos-backend/internal/auth/domain"
	"github.com/smithos/smithos-backend/internal/clock"
)

const (
	DefaultTokenTTL     = 24 * time.Hour
	DefaultChallengeTTL = 5 * time.Minute
	// ActiveWindow is how recent a session's activity must be to count as active.
	ActiveWindow = 5 * time.Minute

	challengePrefix = "Sign this message to authenticate with SmithOS.\nNonce: "
)

type UserStore interface {
	Upsert(ctx context.Context, wallet string, isAdmin bool) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePreferences(ctx context.Context, id string, prefs map[string]interface{}) (*domain.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ActiveSince(ctx context.Context, since time.Time) ([]domain.Session, error)
}

type ChallengeStore interface {
	Save(ctx context.Context, wallet, nonce string, ttl time.Duration) error
	Consume(ctx context.Context, wallet string) (string, error)
}

type TokenIssuer interface {
	Issue(claims domain.Claims) (string, error)
	Parse(raw string) (domain.Claims, error)
}

type Config struct {
	TokenTTL     time.Duration
	ChallengeTTL time.Duration
	Admins       auth.AdminList
}

type AuthService struct {
	users      UserStore
	sessions   SessionStore
	challenges ChallengeStore
	tokens     TokenIssuer
	cfg        Config
	clock      clock.Clock
	log        *zap.Logger
	onLogout   []func(userID string)
}

type Option func(*AuthService)

func WithClock(c clock.Clock) Option { return func(s *AuthService) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *AuthService) { s.log = l.Named("auth") } }

// WithLogoutHook runs fn with the user id after each successful logout.
func WithLogoutHook(fn func(userID string)) Option {
	return func(s *AuthService) { s.onLogout = append(s.onLogout, fn) }
}

func NewAuthService(users UserStore, sessions SessionStore, challenges ChallengeStore, tokens TokenIssuer, cfg Config, opts ...Option) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	s := &AuthService{
		users:      users,
		sessions:   sessions,
		challenges: challenges,
		tokens:     tokens,
		cfg:        cfg,
		clock:      clock.Real(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChallengeMessage is the exact text a wallet signs for nonce.
func ChallengeMessage(nonce string) string {
	return challengePrefix + nonce
}

// Challenge issues a fresh nonce for wallet, replacing any pending one.
func (s *AuthService) Challenge(ctx context.Context, wallet string) (*domain.Challenge, error) {
	wallet = strings.TrimSpace(wallet)
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return nil, domain.ErrInvalidWallet
	}

	nonce := uuid.NewString()
	if err := s.challenges.Save(ctx, wallet, nonce, s.cfg.ChallengeTTL); err != nil {
		return nil, err
	}
	return &domain.Challenge{
		WalletAddress: wallet,
		Nonce:         nonce,
		Message:       ChallengeMessage(nonce),
		ExpiresAt:     s.clock.Now().Add(s.cfg.ChallengeTTL).UTC(),
	}, nil
}

// Authenticate checks the signed challenge and opens a session.
func (s *AuthService) Authenticate(ctx context.Context, req domain.AuthenticateRequest) (*domain.AuthResult, error) {
	wallet := strings.TrimSpace(req.WalletAddress)
	pub, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, domain.ErrInvalidWallet
	}
	sig, err := solana.SignatureFromBase58(strings.TrimSpace(req.Signature))
	if err != nil {
		return nil, domain.ErrInvalidSignature
	}

	nonce, err := s.challenges.Consume(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !sig.Verify(pub, []byte(ChallengeMessage(nonce))) {
		return nil, domain.ErrInvalidSignature
	}

	user, err := s.users.Upsert(ctx, wallet, s.cfg.Admins.Contains(wallet))
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	now := s.clock.Now().UTC()
	session := &domain.Session{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		IsAdmin:       user.IsAdmin,
		ExpiresAt:     now.Add(s.cfg.TokenTTL),
		LastActivity:  now,
		UserAgent:     req.UserAgent,
		IPAddress:     req.IPAddress,
		CreatedAt:     now,
	}

	token, err := s.tokens.Issue(domain.Claims{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		SessionID:     session.ID,
		IssuedAt:      now,
		ExpiresAt:     session.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if err := s.sessions.Create(ctx, session, s.cfg.TokenTTL); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	s.log.Info("wallet authenticated",
		zap.String("user_id", user.ID),
		zap.String("session_id", session.ID),
		zap.Bool("admin", user.IsAdmin),
	)
	return &domain.AuthResult{Token: token, User: user}, nil
}

// Resolve validates a bearer token against its live session and records the
// activity.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrInvalidToken
	}

	now := s.clock.Now().UTC()
	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		s.log.Warn("failed to record session activity", zap.String("session_id", session.ID), zap.Error(err))
	} else {
		session.LastActivity = now
	}
	return session, nil
}

// Logout deletes the session. An unknown session is already logged out.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	for _, fn := range s.onLogout {
		fn(session.UserID)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdatePreferences(ctx context.Context, userID string, prefs map[string]interface{}) (*domain.User, error) {
	if len(prefs) == 0 {
		return s.users.GetByID(ctx, userID)
	}
	return s.users.UpdatePreferences(ctx, userID, prefs)
}

// ActiveSessions lists sessions with activity in the last ActiveWindow.
func (s *AuthService) ActiveSessions(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.ActiveSince(ctx, s.clock.Now().Add(-ActiveWindow))
}
