package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"optikcoin/internal/config"
	"optikcoin/internal/database"
	"optikcoin/internal/logger"
	"optikcoin/internal/orchestrator/chateviction"
	"optikcoin/internal/orchestrator/tokenactivation"
	"optikcoin/internal/pgmq"
	"optikcoin/internal/repository"
	"optikcoin/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Orchestrator mode: token-activation|chat-eviction")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Initialize DB connection
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "token-activation":
		client := pgmq.New(db)
		for _, q := range []string{cfg.TokenActivationQueueName, cfg.TokenActivationDeadLetterQueueName} {
			if err := client.CreateQueue(ctx, q); err != nil {
				logger.Fatal().Msgf("Failed to create queue %s: %v", q, err)
			}
		}
		runErr = tokenactivation.Run(ctx, logger, client, repository.NewTokenRepo(db), tokenactivation.Options{
			Queue:           cfg.TokenActivationQueueName,
			DeadLetterQueue: cfg.TokenActivationDeadLetterQueueName,
			PollTimeoutSec:  cfg.TokenActivationPollTimeoutSec,
			PollMaxMsg:      cfg.TokenActivationPollMaxMsg,
			MaxRetries:      cfg.TokenActivationMaxRetries,
			BackoffInitial:  time.Duration(cfg.TokenActivationBackoffInitialSec) * time.Second,
			BackoffMax:      time.Duration(cfg.TokenActivationBackoffMaxSec) * time.Second,
		})
	case "chat-eviction":
		chatSvc := service.NewChatService(repository.NewChatRepo(db), cfg.ChatSessionTTL, cfg.ChatHistoryMaxEntries, logger)
		runErr = chateviction.Run(ctx, logger, chatSvc, cfg.ChatEvictionInterval)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
