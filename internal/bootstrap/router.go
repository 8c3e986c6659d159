package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/config"
	httpapi "github.com/smithos/smithos-backend/internal/api/http"
	apimw "github.com/smithos/smithos-backend/internal/api/http/middleware"
	"github.com/smithos/smithos-backend/internal/auth"
	authhttp "github.com/smithos/smithos-backend/internal/auth/http"
	authmw "github.com/smithos/smithos-backend/internal/auth/middleware"
	authrepo "github.com/smithos/smithos-backend/internal/auth/repository"
	"github.com/smithos/smithos-backend/internal/auth/security"
	authservice "github.com/smithos/smithos-backend/internal/auth/service"
	"github.com/smithos/smithos-backend/internal/desktop"
	desktophttp "github.com/smithos/smithos-backend/internal/desktop/http"
	desktoprepo "github.com/smithos/smithos-backend/internal/desktop/repository"
	desktopservice "github.com/smithos/smithos-backend/internal/desktop/service"
	"github.com/smithos/smithos-backend/internal/metrics"
	"github.com/smithos/smithos-backend/internal/payment"
	rafflehttp "github.com/smithos/smithos-backend/internal/raffle/http"
	rafflerepo "github.com/smithos/smithos-backend/internal/raffle/repository"
	raffleservice "github.com/smithos/smithos-backend/internal/raffle/service"
)

// tokenLeeway absorbs clock skew between instances.
const tokenLeeway = 30 * time.Second

// Ledger is a payment ledger that can also report its own health.
type Ledger interface {
	payment.Ledger
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	DB      *pgxpool.Pool
	SQL     *sql.DB
	Redis   *redis.Client
	Ledger  Ledger
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	cfg := dep.Config
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}

	issuer, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, tokenLeeway)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware(log.Named("http")))
	r.Use(dep.Metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	httpapi.NewHealthHandler(cfg.App.ServiceName, cfg.App.Version, healthChecks(dep)).RegisterRoutes(r)

	// pointer samples arrive at frame rate and get their own per-second budget
	pointerRoute := "/api/v1/desktop" + desktophttp.PointerPath
	pointerLimit := apimw.NewRateLimiter(cfg.Server.PointerRateLimit, time.Second)

	api := r.Group("/api")
	api.Use(apimw.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow).Middleware(pointerRoute))

	manager := desktopservice.NewManager(
		desktoprepo.NewLayoutRepository(dep.Redis),
		desktop.DefaultCatalog(),
		desktopservice.WithLogger(log),
	)

	// auth
	authSvc := authservice.NewAuthService(
		authrepo.NewUserRepository(dep.DB),
		authrepo.NewSessionRepository(dep.Redis),
		authrepo.NewChallengeRepository(dep.Redis),
		issuer,
		authservice.Config{
			TokenTTL:     cfg.Auth.TokenTTL,
			ChallengeTTL: cfg.Auth.ChallengeTTL,
			Admins:       auth.NewAdminList(cfg.Auth.AdminWallets),
		},
		authservice.WithLogger(log),
		authservice.WithLogoutHook(manager.Forget),
	)
	requireSession := authmw.RequireSession(authSvc, log.Named("auth.middleware"))
	requireAdmin := authmw.RequireAdmin()

	authHandler := authhttp.New(authSvc, log)
	authHandler.Register(api.Group("/auth"), requireSession)

	v1 := api.Group("/v1")
	authHandler.RegisterAdmin(v1.Group("/admin", requireSession, requireAdmin))

	// raffle
	verifier := payment.NewVerifier(dep.Ledger,
		payment.WithLogger(log),
		payment.WithPollInterval(cfg.Payment.PollInterval),
		payment.WithConfirmTimeout(cfg.Payment.ConfirmTimeout),
		payment.WithJitter(cfg.Payment.PollJitter),
		payment.WithOutcomeCounter(dep.Metrics.PaymentVerifications),
	)
	raffleSvc := raffleservice.NewRaffleService(
		rafflerepo.NewRaffleRepository(dep.SQL),
		verifier,
		raffleservice.Config{
			WalletAddress: cfg.Raffle.WalletAddress,
			TicketPrice:   cfg.Raffle.TicketPrice,
		},
		raffleservice.WithLogger(log),
	)
	rafflehttp.New(raffleSvc, log).Register(v1.Group("/raffle"), requireSession, requireAdmin)

	// desktop
	desktophttp.New(manager, log).Register(v1.Group("/desktop", requireSession), pointerLimit.Middleware())

	return r, nil
}

func healthChecks(dep RouterDeps) httpapi.HealthChecks {
	var checks httpapi.HealthChecks
	if dep.DB != nil {
		checks.DB = dep.DB.Ping
	}
	if dep.Redis != nil {
		checks.Redis = func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() }
	}
	if dep.Ledger != nil {
		checks.Ledger = dep.Ledger.Ping
	}
	return checks
}
