package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Solana   SolanaConfig
	Payment  PaymentConfig
	Raffle   RaffleConfig
	Auth     AuthConfig
	Jobs     JobsConfig
	App      AppConfig
}

type ServerConfig struct {
	Port              string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// PointerRateLimit is pointer events per second per client.
	PointerRateLimit  int
}

type DatabaseConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SolanaConfig struct {
	// Endpoints is a "url|weight" CSV; empty means the built-in pool.
	Endpoints   string
	RPS         float64
	Timeout     time.Duration
	MaxFailures int
}

type PaymentConfig struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	// PollJitter adds up to this much random delay to each status poll.
	PollJitter time.Duration
}

type RaffleConfig struct {
	WalletAddress string
	TicketPrice   float64
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	ChallengeTTL time.Duration
	AdminWallets []string
}

type JobsConfig struct {
	SessionCleanupSchedule string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnv("PORT", "3001"),
			CORSOrigins:       getEnvAsList("CORS_ORIGIN", []string{"http://localhost:5173"}),
			RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			PointerRateLimit:  getEnvAsInt("POINTER_RATE_LIMIT", 240),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "smithos"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Solana: SolanaConfig{
			Endpoints:   getEnv("SOLANA_RPC_ENDPOINTS", ""),
			RPS:         getEnvAsFloat("SOLANA_RPC_RPS", 10),
			Timeout:     getEnvAsDuration("SOLANA_RPC_TIMEOUT", 5*time.Second),
			MaxFailures: getEnvAsInt("SOLANA_RPC_MAX_FAILURES", 2),
		},
		Payment: PaymentConfig{
			ConfirmTimeout: getEnvAsDuration("PAYMENT_CONFIRM_TIMEOUT", 30*time.Second),
			PollInterval:   getEnvAsDuration("PAYMENT_POLL_INTERVAL", 2*time.Second),
			PollJitter:     getEnvAsDuration("PAYMENT_POLL_JITTER", 0),
		},
		Raffle: RaffleConfig{
			WalletAddress: getEnv("RAFFLE_WALLET_ADDRESS", ""),
			TicketPrice:   getEnvAsFloat("RAFFLE_TICKET_PRICE", 0.1),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvAsDuration("JWT_TTL", 24*time.Hour),
			ChallengeTTL: getEnvAsDuration("AUTH_CHALLENGE_TTL", 5*time.Minute),
			AdminWallets: getEnvAsList("ADMIN_WALLETS", nil),
		},
		Jobs: JobsConfig{
			SessionCleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "0 0 * * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "smithos-api"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Raffle.TicketPrice <= 0 {
		return fmt.Errorf("RAFFLE_TICKET_PRICE must be positive")
	}

	if c.Payment.PollInterval <= 0 || c.Payment.ConfirmTimeout <= 0 {
		return fmt.Errorf("PAYMENT_POLL_INTERVAL and PAYMENT_CONFIRM_TIMEOUT must be positive")
	}

	if c.Payment.PollJitter < 0 {
		return fmt.Errorf("PAYMENT_POLL_JITTER must not be negative")
	}

	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DSN returns the libpq connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
