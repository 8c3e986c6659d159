package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/config"
	cronjob "github.com/smithos/smithos-backend/internal/auth/cron"
	authrepo "github.com/smithos/smithos-backend/internal/auth/repository"
	"github.com/smithos/smithos-backend/internal/bootstrap"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <sessions-janitor|prune-sessions>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := bootstrap.NewLogger(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	janitor := cronjob.NewJanitor(authrepo.NewSessionRepository(rdb), cfg.Auth.TokenTTL, cfg.Jobs.SessionCleanupSchedule, logger)

	switch os.Args[1] {
	case "sessions-janitor":
		if err := janitor.Start(); err != nil {
			logger.Fatal("start janitor", zap.Error(err))
		}
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		janitor.Stop(stopCtx)
	case "prune-sessions":
		if _, err := janitor.RunOnce(ctx); err != nil {
			logger.Fatal("prune sessions", zap.Error(err))
		}
	default:
		logger.Fatal("unknown command", zap.String("command", os.Args[1]))
	}
}
