package tokenactivation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"optikcoin/internal/pgmq"
	"optikcoin/internal/service"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker uses.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// Activator flips a pending token to active. It reports false when the
// token is missing or no longer pending.
type Activator interface {
	Activate(ctx context.Context, id string) (bool, error)
}

type Options struct {
	Queue           string
	DeadLetterQueue string
	PollTimeoutSec  int
	PollMaxMsg      int
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
}

// visibility keeps a message hidden while its retries are still running.
func (o Options) visibility() int {
	worst := time.Duration(o.MaxRetries) * o.BackoffMax
	return int(worst/time.Second) + 30
}

// Run starts the token activation orchestrator and blocks until ctx ends.
func Run(ctx context.Context, logger zerolog.Logger, q Queue, tokens Activator, opts Options) error {
	logger = logger.With().Str("worker", "token-activation").Str("queue", opts.Queue).Logger()
	logger.Info().Msg("Starting token activation orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down token activation orchestrator")
			return nil
		default:
		}
		msgs, err := q.ReadWithPoll(ctx, opts.Queue, opts.visibility(), opts.PollTimeoutSec, opts.PollMaxMsg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("Error reading token activation queue")
			sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			handle(ctx, logger, q, tokens, opts, msg)
		}
	}
}

// handle processes one message. Every outcome except shutdown removes the
// message from the queue; exhausted jobs go to the dead-letter queue first.
func handle(ctx context.Context, logger zerolog.Logger, q Queue, tokens Activator, opts Options, msg *pgmq.Message) {
	log := logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCnt).Logger()

	var job service.TokenActivationJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.TokenID == "" {
		log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Malformed token activation job; deleting message")
		ack(ctx, log, q, opts.Queue, msg.ID)
		return
	}
	log = log.With().Str("token_id", job.TokenID).Logger()

	backoff := opts.BackoffInitial
	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		activated, err := tokens.Activate(ctx, job.TokenID)
		if err == nil {
			if activated {
				log.Info().Int("attempt", attempt).Msg("Token activated")
			} else {
				log.Warn().Msg("Token missing or already active; nothing to do")
			}
			ack(ctx, log, q, opts.Queue, msg.ID)
			return
		}
		lastErr = err
		log.Error().Err(err).Int("attempt", attempt).Msg("Token activation failed, retrying")
		if !sleep(ctx, backoff) {
			// Leave the message; it becomes visible again after the timeout.
			return
		}
		backoff *= 2
		if backoff > opts.BackoffMax {
			backoff = opts.BackoffMax
		}
	}

	dead, err := json.Marshal(map[string]string{
		"token_id": job.TokenID,
		"error":    fmt.Sprint(lastErr),
	})
	if err == nil {
		err = q.Send(ctx, opts.DeadLetterQueue, dead)
	}
	if err != nil {
		log.Error().Err(err).Str("dlq", opts.DeadLetterQueue).Msg("Failed to send job to dead-letter queue; leaving message for redelivery")
		return
	}
	log.Warn().Int("attempts", opts.MaxRetries).Err(lastErr).Msg("Exhausted token activation retries; moved job to DLQ")
	ack(ctx, log, q, opts.Queue, msg.ID)
}

func ack(ctx context.Context, logger zerolog.Logger, q Queue, queue string, id int64) {
	if err := q.Delete(ctx, queue, []int64{id}); err != nil {
		logger.Error().Err(err).Msg("Error deleting token activation message")
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
