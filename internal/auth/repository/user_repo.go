package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smithos/smithos-backend/internal/auth/domain"
)

// Querier is the part of pgxpool.Pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id::text, wallet_address, is_admin, preferences, created_at, updated_at, last_login_at`

// Upsert creates the user on first login, otherwise refreshes the admin flag
// and last login time.
func (r *UserRepository) Upsert(ctx context.Context, wallet string, isAdmin bool) (*domain.User, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, domain.ErrInvalidWallet
	}

	prefs, err := json.Marshal(domain.DefaultPreferences())
	if err != nil {
		prefs = []byte("{}")
	}

	q := `
insert into users (wallet_address, is_admin, preferences, last_login_at)
values ($1, $2, $3, now())
on conflict (wallet_address) do update
set
  is_admin = excluded.is_admin,
  last_login_at = now(),
  updated_at = now()
returning ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, q, wallet, isAdmin, prefs))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `select ` + userColumns + ` from users where id::text = $1`

	user, err := scanUser(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdatePreferences merges prefs into the stored preferences.
func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, prefs map[string]interface{}) (*domain.User, error) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}

	q := `
update users
set preferences = preferences || $2::jsonb, updated_at = now()
where id::text = $1
returning ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, q, id, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var prefsJSON []byte
	var lastLogin *time.Time

	if err := row.Scan(
		&user.ID,
		&user.WalletAddress,
		&user.IsAdmin,
		&prefsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	); err != nil {
		return nil, err
	}
	user.LastLoginAt = lastLogin

	// Parse JSONB preferences
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &user.Preferences); err != nil {
			user.Preferences = make(map[string]interface{})
		}
	} else {
		user.Preferences = make(map[string]interface{})
	}
	return &user, nil
}
