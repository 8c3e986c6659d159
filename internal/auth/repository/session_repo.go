package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smithos/smithos-backend/internal/auth/domain"
)

const (
	sessionKeyPrefix  = "auth:session:"          // session blob: auth:session:{session_id}
	userSessionPrefix = "auth:user:"             // set of session ids: auth:user:{user_id}:sessions
	activityKey       = "auth:sessions:activity" // zset of {user_id}|{session_id} scored by last activity
)

// SessionRepository handles Redis operations for login sessions
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Create stores the session for ttl.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session %s has no lifetime", s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	userKey := r.userSessionsKey(s.UserID)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
	pipe.SAdd(ctx, userKey, s.ID)
	pipe.Expire(ctx, userKey, ttl)
	pipe.ZAdd(ctx, activityKey, redis.Z{Score: score(s.LastActivity), Member: member(s.UserID, s.ID)})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Touch records activity on a live session without extending its lifetime.
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	s.LastActivity = at

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.SetArgs(ctx, r.sessionKey(id), data, redis.SetArgs{KeepTTL: true, Mode: "XX"})
	pipe.ZAdd(ctx, activityKey, redis.Z{Score: score(at), Member: member(s.UserID, s.ID)})
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete removes a session and its index entries. Deleting an unknown
// session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err == domain.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(id))
	pipe.SRem(ctx, r.userSessionsKey(s.UserID), id)
	pipe.ZRem(ctx, activityKey, member(s.UserID, id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListByUser returns the user's live sessions.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	return r.load(ctx, ids)
}

// ActiveSince returns live sessions with activity at or after since.
func (r *SessionRepository) ActiveSince(ctx context.Context, since time.Time) ([]domain.Session, error) {
	members, err := r.client.ZRangeByScore(ctx, activityKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		if _, id, ok := splitMember(m); ok {
			ids = append(ids, id)
		}
	}
	return r.load(ctx, ids)
}

// Prune drops index entries whose last activity is before cutoff, along with
// any session blob still behind them. It returns how many entries were removed.
func (r *SessionRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := r.client.ZRangeByScore(ctx, activityKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	for _, m := range stale {
		userID, id, ok := splitMember(m)
		if ok {
			pipe.Del(ctx, r.sessionKey(id))
			pipe.SRem(ctx, r.userSessionsKey(userID), id)
		}
		pipe.ZRem(ctx, activityKey, m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return len(stale), nil
}

func (r *SessionRepository) load(ctx context.Context, ids []string) ([]domain.Session, error) {
	out := []domain.Session{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // expired between index read and load
		}
		var s domain.Session
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SessionRepository) sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *SessionRepository) userSessionsKey(userID string) string {
	return userSessionPrefix + userID + ":sessions"
}

func member(userID, sessionID string) string {
	return userID + "|" + sessionID
}

func splitMember(m string) (userID, sessionID string, ok bool) {
	return strings.Cut(m, "|")
}

func score(t time.Time) float64 {
	return float64(t.Unix())
}
