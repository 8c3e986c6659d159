package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Server.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.Server.RateLimitWindow)
	assert.Equal(t, 240, cfg.Server.PointerRateLimit)
	assert.Zero(t, cfg.Payment.PollJitter)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.Payment.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, cfg.Payment.PollInterval)
	assert.Equal(t, 0.1, cfg.Raffle.TicketPrice)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2, cfg.Solana.MaxFailures)
	assert.Empty(t, cfg.Auth.AdminWallets)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_WALLETS", " walletA, ,walletB ")
	t.Setenv("RAFFLE_TICKET_PRICE", "0.25")
	t.Setenv("PAYMENT_CONFIRM_TIMEOUT", "45s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/smithos")
	t.Setenv("PAYMENT_POLL_JITTER", "250ms")
	t.Setenv("POINTER_RATE_LIMIT", "60")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"walletA", "walletB"}, cfg.Auth.AdminWallets)
	assert.Equal(t, 0.25, cfg.Raffle.TicketPrice)
	assert.Equal(t, 45*time.Second, cfg.Payment.ConfirmTimeout)
	assert.Equal(t, 0, cfg.Redis.DB, "invalid values fall back to the default")
	assert.Equal(t, "postgres://u:p@db:5432/smithos", cfg.Database.DSN())
	assert.Equal(t, 250*time.Millisecond, cfg.Payment.PollJitter)
	assert.Equal(t, 60, cfg.Server.PointerRateLimit)
	assert.True(t, cfg.IsProduction())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "pw", Name: "smithos"}
	assert.Equal(t, "host=db port=5433 user=app password=pw dbname=smithos sslmode=disable", d.DSN())
}

func TestValidate_RejectsBadPrice(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RAFFLE_TICKET_PRICE", "-1")

	_, err := Load()
	assert.ErrorContains(t, err, "RAFFLE_TICKET_PRICE")
}
