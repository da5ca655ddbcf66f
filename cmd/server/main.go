package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"command-bot/backend/pkg/config"
	"command-bot/backend/pkg/di"
	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/observability"
	"command-bot/backend/pkg/router"
	"command-bot/backend/pkg/secrets"

	"gorm.io/gorm"
)

func main() {
	// Load configuration (reads .env when present)
	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env)

	// Resolve secrets from Vault, falling back to the environment
	secretManager, err := secrets.NewVaultManager(secrets.VaultConfig{
		Enabled:     cfg.Vault.Enabled,
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		Namespace:   cfg.Vault.Namespace,
		SecretsPath: cfg.Vault.SecretsPath,
	}, log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	secrets.Apply(context.Background(), secretManager, cfg, log)

	if cfg.Bridge.SecretHash == "" {
		log.Warn("BRIDGE_SECRET_HASH is not set, bridges cannot obtain tokens")
	}

	shutdownTracing, err := observability.SetupTracing(observability.TracingConfig{
		ServiceName: cfg.Observability.ServiceName,
		Enabled:     cfg.Observability.TracingEnabled,
	})
	if err != nil {
		log.LogError(err, "Failed to initialize tracing")
		os.Exit(1)
	}

	// Audit database is optional
	var db *gorm.DB
	if cfg.Database.Enabled {
		db, err = config.NewDB(cfg)
		if err != nil {
			log.LogError(err, "Failed to initialize database")
			os.Exit(1)
		}
	}

	container, err := di.New(cfg, db, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.Start(ctx)

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	go func() {
		if err := container.GRPC.ListenAndServe(cfg.Server.GRPCPort); err != nil {
			log.LogError(err, "gRPC server stopped")
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	// Stop the hub and health loop before closing their dependencies
	cancel()
	container.Close(shutdownCtx)

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush traces")
	}

	log.Info("Server exited gracefully")
}
