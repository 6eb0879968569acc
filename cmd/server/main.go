package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockgate/internal/audit"
	"stockgate/internal/auth"
	"stockgate/internal/config"
	"stockgate/internal/database"
	"stockgate/internal/inventory"
	"stockgate/internal/logging"
	"stockgate/internal/server"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	var (
		userStore auth.Store
		itemRepo  inventory.Repository
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		userStore = auth.NewMemoryStore()
		itemRepo = inventory.NewMemoryRepository()
	default:
		db, err := database.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		logger.Info("database connected, migrations applied")
		userStore = auth.NewGormStore(db)
		itemRepo = inventory.NewGormRepository(db, logger)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc, err := auth.NewService(userStore, tokens, cfg.BcryptCost, logger)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	if cfg.UsersSeedPath != "" {
		n, err := authSvc.SeedFromFile(ctx, cfg.UsersSeedPath)
		if err != nil {
			log.Fatalf("seed users: %v", err)
		}
		logger.Info("seeded users", "created", n, "path", cfg.UsersSeedPath)
	}

	app := server.New(server.Deps{
		Auth:        authSvc,
		Inventory:   inventory.NewService(itemRepo, logger),
		Audit:       audit.NewRecorder(logger),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   true,
	})

	go func() {
		logger.Info("server listening", "port", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal(err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
