package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"homeservices-marketplace/internal/config"
	"homeservices-marketplace/internal/database"
	"homeservices-marketplace/internal/logging"
)

// Applies the relational schema without starting the server.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Sandbox() {
		log.Fatalf("Nothing to migrate in %s mode", config.EnvModeWebcontainer)
	}

	logger, err := logging.New(cfg.App.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
}
