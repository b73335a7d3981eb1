package chateviction

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Evictor deletes chat turns past their expiry.
type Evictor interface {
	EvictExpired(ctx context.Context) (int64, error)
}

// Run evicts expired chat history every interval until ctx ends. Failures
// are logged and retried on the next tick.
func Run(ctx context.Context, logger zerolog.Logger, chat Evictor, interval time.Duration) error {
	logger = logger.With().Str("worker", "chat-eviction").Logger()
	logger.Info().Dur("interval", interval).Msg("Starting chat eviction orchestrator")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		evictOnce(ctx, logger, chat)
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down chat eviction orchestrator")
			return nil
		case <-ticker.C:
		}
	}
}

func evictOnce(ctx context.Context, logger zerolog.Logger, chat Evictor) {
	n, err := chat.EvictExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Msg("Failed to evict expired chat messages")
		}
		return
	}
	if n > 0 {
		logger.Info().Int64("deleted", n).Msg("Evicted expired chat messages")
	}
}
