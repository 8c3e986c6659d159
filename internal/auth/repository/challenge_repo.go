package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smithos/smithos-backend/internal/auth/domain"
)

const challengeKeyPrefix = "auth:challenge:" // pending login nonce: auth:challenge:{wallet}

// ChallengeRepository stores one pending login nonce per wallet.
type ChallengeRepository struct {
	client *redis.Client
}

func NewChallengeRepository(client *redis.Client) *ChallengeRepository {
	return &ChallengeRepository{client: client}
}

// Save replaces any pending nonce for wallet.
func (r *ChallengeRepository) Save(ctx context.Context, wallet, nonce string, ttl time.Duration) error {
	if err := r.client.Set(ctx, challengeKeyPrefix+wallet, nonce, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save challenge: %w", err)
	}
	return nil
}

// Consume returns and deletes the pending nonce, so each challenge can be
// answered once.
func (r *ChallengeRepository) Consume(ctx context.Context, wallet string) (string, error) {
	nonce, err := r.client.GetDel(ctx, challengeKeyPrefix+wallet).Result()
	if err == redis.Nil {
		return "", domain.ErrChallengeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume challenge: %w", err)
	}
	return nonce, nil
}
