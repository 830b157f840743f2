package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/config"
	"github.com/homemanager/auth-service/internal/observability"
	"github.com/homemanager/auth-service/internal/persistence"
	"github.com/homemanager/auth-service/internal/repository"
	"github.com/homemanager/auth-service/internal/service"
)

// Seeds the bootstrap superadmin and test resident into Postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Configured() {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(pg.PoolHandle(), auth.NewHasher(cfg.Auth.BcryptCost))
	created, err := service.NewSeeder(users, logger).Seed(ctx, service.DefaultAccounts(cfg.Seed))
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seeding complete", zap.Int("created", created))
}
