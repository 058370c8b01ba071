package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/config"
	"homeservices-marketplace/internal/database"
	"homeservices-marketplace/internal/handlers"
	"homeservices-marketplace/internal/jobs"
	"homeservices-marketplace/internal/logging"
	"homeservices-marketplace/internal/notify"
	"homeservices-marketplace/internal/repository"
	"homeservices-marketplace/internal/reviews"
	"homeservices-marketplace/internal/services"
)

// backends are the storage and messaging dependencies chosen by the env mode.
type backends struct {
	store    repository.Store
	docs     reviews.Store
	notifier notify.Notifier
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.App.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var b *backends
	if cfg.Sandbox() {
		b = sandboxBackends(logger)
	} else {
		b, err = connectBackends(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize backends", zap.Error(err))
		}
	}
	defer b.close()

	scope, err := services.ParseSiblingScope(cfg.App.OfferSiblingScope)
	if err != nil {
		logger.Fatal("invalid offer sibling scope", zap.Error(err))
	}

	mockUsers, err := auth.LoadMockUsers(cfg.App.MockUsersFile)
	if err != nil {
		logger.Fatal("failed to load mock users", zap.Error(err))
	}

	// Initialize services
	tokens := auth.NewTokenManager(cfg.App.JWTSecret, cfg.App.SessionTTL)
	reviewService := services.NewReviewService(b.docs, tokens, logger)
	jobService := services.NewJobService(b.store, reviewService, logger)
	offerService := services.NewOfferService(b.store, b.notifier, reviewService, scope, logger)
	authService := services.NewAuthService(b.store, reviewService, tokens, mockUsers, cfg.Sandbox(), logger)

	// Store health checks
	monitor := jobs.NewHealthMonitor(cfg.App.HealthCheckSpec, b.store, b.docs, logger)
	if err := monitor.Start(ctx); err != nil {
		logger.Fatal("failed to start health monitor", zap.Error(err))
	}
	defer monitor.Stop()

	router := handlers.NewRouter(handlers.RouterDeps{
		Jobs:         jobService,
		Offers:       offerService,
		Reviews:      reviewService,
		Auth:         authService,
		Tokens:       tokens,
		Health:       monitor,
		FrontendURL:  cfg.Server.FrontendURL,
		SecureCookie: cfg.Production(),
		Log:          logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("env_mode", cfg.App.EnvMode),
			zap.String("sibling_scope", string(scope)))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// sandboxBackends keeps everything in memory for the web container.
func sandboxBackends(logger *zap.Logger) *backends {
	logger.Warn("running in webcontainer mode: in-memory stores, mock auth enabled")
	return &backends{
		store:    repository.NewMemoryStore(),
		docs:     reviews.NewMemoryStore(),
		notifier: notify.NewLogNotifier(logger),
	}
}

func connectBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{}

	db, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if cfg.App.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			b.close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrated")
	}
	b.store = repository.NewGormStore(db)

	client, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		b.close()
		return nil, err
	}
	b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })

	docs := reviews.NewMongoStore(client, cfg.Mongo.Database)
	if err := docs.EnsureIndexes(ctx); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to create document indexes: %w", err)
	}
	b.docs = docs

	if cfg.Redis.URL == "" {
		logger.Info("REDIS_URL not set, notifications are logged only")
		b.notifier = notify.NewLogNotifier(logger)
		return b, nil
	}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis.URL)
	if err != nil {
		b.close()
		return nil, err
	}
	b.closers = append(b.closers, func() { rdb.Close() })
	b.notifier = notify.NewRedisNotifier(rdb, cfg.Redis.NotificationChannel, logger)

	return b, nil
}
