package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/homemanager/auth-service/internal/api/http"
	"github.com/homemanager/auth-service/internal/api/http/handlers"
	"github.com/homemanager/auth-service/internal/auth"
	"github.com/homemanager/auth-service/internal/config"
	"github.com/homemanager/auth-service/internal/events"
	"github.com/homemanager/auth-service/internal/observability"
	"github.com/homemanager/auth-service/internal/persistence"
	"github.com/homemanager/auth-service/internal/repository"
	"github.com/homemanager/auth-service/internal/service"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	var userRepo repository.UserRepository
	if pg.Configured() {
		userRepo = repository.NewUserRepository(pg.PoolHandle(), hasher)
	} else {
		userRepo = repository.NewMemoryUserRepository(hasher)
	}

	var (
		throttle auth.LoginThrottle
		rdb      *persistence.Redis
	)
	switch cfg.Auth.ThrottleBackend {
	case config.ThrottleBackendRedis:
		rdb, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		throttle = auth.NewRedisThrottle(rdb.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	default:
		memThrottle := auth.NewMemoryThrottle(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow(), cfg.Auth.ThrottleSweepInterval())
		defer memThrottle.Close()
		throttle = memThrottle
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Throttle:   throttle,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(userRepo, throttle, dispatcher, logger)
	gate := auth.NewGate(authService.TokenManager(), userRepo, logger)

	if cfg.Seed.Enabled || !pg.Configured() {
		if _, err := service.NewSeeder(userRepo, logger).Seed(ctx, service.DefaultAccounts(cfg.Seed)); err != nil {
			logger.Fatal("failed to seed accounts", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    rdb,
		}),
		Auth:  handlers.NewAuthHandler(authService),
		Users: handlers.NewUsersHandler(userService),
		Gate:  gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
