package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optikcoin/internal/api/v1/router"
	"optikcoin/internal/config"
	"optikcoin/internal/database"
	"optikcoin/internal/logger"
	"optikcoin/internal/service"

	"github.com/joho/godotenv"
)

//go:generate go tool swag init -d ../../ -g cmd/app/main.go -o ../../docs/swagger --outputTypes json

// @title OptikCoin API
// @version 1.0
// @description OptikCoin DEX backend: payments, subscriptions, tokens and mining
// @host localhost:8080
// @BasePath /
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()

	// 2. Optional Secret Manager override for Stripe keys
	if cfg.StripeSecretKeySecret != "" || cfg.StripeWebhookSecretSecret != "" {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		if err := service.ApplyStripeSecrets(ctx, cfg, secrets); err != nil {
			logger.Fatal().Msgf("Failed to load Stripe secrets: %v", err)
		}
		secrets.Close()
		logger.Info().Msg("Stripe secrets loaded from Secret Manager")
	}

	// 3. Database
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal().Msgf("Failed to migrate database: %v", err)
		}
		logger.Info().Msg("Database schema applied")
	}

	// 4. Build router
	r, cleanup, err := router.New(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer cleanup()

	// 5. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Start server in a goroutine
	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Msgf("Server forced to shutdown: %v", err)
		return
	}
	logger.Info().Msg("Server shut down gracefully")
}
