package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smithos/smithos-backend/internal/desktop/window"
)

const (
	layoutKeyPrefix = "desktop:layout:" // window snapshot: desktop:layout:{user_id}
	LayoutTTL       = 30 * 24 * time.Hour
)

// LayoutRepository persists per-user window snapshots in Redis
type LayoutRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLayoutRepository(client *redis.Client) *LayoutRepository {
	return &LayoutRepository{client: client, ttl: LayoutTTL}
}

// Load returns the saved layout, or ok=false when the user has none.
func (r *LayoutRepository) Load(ctx context.Context, userID string) (window.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, layoutKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return window.Snapshot{}, false, nil
	}
	if err != nil {
		return window.Snapshot{}, false, fmt.Errorf("failed to get layout: %w", err)
	}

	var snap window.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return window.Snapshot{}, false, fmt.Errorf("failed to unmarshal layout: %w", err)
	}
	return snap, true, nil
}

// Save overwrites the layout and refreshes its TTL.
func (r *LayoutRepository) Save(ctx context.Context, userID string, snap window.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	if err := r.client.Set(ctx, layoutKeyPrefix+userID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

func (r *LayoutRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, layoutKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	return nil
}
