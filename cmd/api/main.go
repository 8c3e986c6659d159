package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/config"
	cronjob "github.com/smithos/smithos-backend/internal/auth/cron"
	authrepo "github.com/smithos/smithos-backend/internal/auth/repository"
	"github.com/smithos/smithos-backend/internal/bootstrap"
	"github.com/smithos/smithos-backend/internal/metrics"
	"github.com/smithos/smithos-backend/internal/payment/solanarpc"
	"github.com/smithos/smithos-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	bootstrap.ConfigureGin(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()})
	if err != nil {
		return err
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := postgres.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	endpoints := solanarpc.DefaultEndpoints
	if cfg.Solana.Endpoints != "" {
		if endpoints, err = solanarpc.ParseEndpoints(cfg.Solana.Endpoints); err != nil {
			return err
		}
	}
	ledger := solanarpc.New(solanarpc.Config{
		Endpoints:   endpoints,
		MaxFailures: cfg.Solana.MaxFailures,
		RPS:         cfg.Solana.RPS,
		Timeout:     cfg.Solana.Timeout,
	}, logger)

	m := metrics.New()
	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		DB:      pool,
		SQL:     sqlDB,
		Redis:   rdb,
		Ledger:  ledger,
	})
	if err != nil {
		return err
	}

	janitor := cronjob.NewJanitor(
		authrepo.NewSessionRepository(rdb),
		cfg.Auth.TokenTTL,
		cfg.Jobs.SessionCleanupSchedule,
		logger,
		cronjob.WithPrunedCounter(m.SessionsPruned),
	)
	if err := janitor.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started",
			zap.String("addr", srv.Addr),
			zap.String("service", cfg.App.ServiceName),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failure", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	janitor.Stop(shutdownCtx)
	return nil
}
