package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smithos/smithos-backend/internal/auth/domain"
)

// TokenIssuer signs and parses HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	leeway time.Duration
}

func NewTokenIssuer(secret string, leeway time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenIssuer{secret: []byte(secret), leeway: leeway}, nil
}

type accessClaims struct {
	UserID        string `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
	SessionID     string `json:"session_id"`
	jwt.RegisteredClaims
}

func (i *TokenIssuer) Issue(claims domain.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID:        claims.UserID,
		WalletAddress: claims.WalletAddress,
		SessionID:     claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns its claims. Expired tokens yield
// domain.ErrTokenExpired, anything else domain.ErrInvalidToken.
func (i *TokenIssuer) Parse(raw string) (domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(i.leeway), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenExpired
		}
		return domain.Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.UserID == "" || claims.SessionID == "" {
		return domain.Claims{}, domain.ErrInvalidToken
	}

	out := domain.Claims{
		UserID:        claims.UserID,
		WalletAddress: claims.WalletAddress,
		SessionID:     claims.SessionID,
		ExpiresAt:     claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
