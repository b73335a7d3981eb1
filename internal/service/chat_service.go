package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"optikcoin/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ChatReply struct {
	Response      string
	SessionID     string
	HistoryLength int
}

// ChatService is the placeholder assistant. It echoes prompts but keeps each
// session's turns in the database with an expiry.
type ChatService interface {
	Chat(ctx context.Context, sessionID, prompt string) (*ChatReply, error)
	EvictExpired(ctx context.Context) (int64, error)
}

type chatService struct {
	repo       repository.ChatRepository
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
	logger     zerolog.Logger
}

func NewChatService(repo repository.ChatRepository, ttl time.Duration, maxHistory int, logger zerolog.Logger) ChatService {
	return &chatService{
		repo:       repo,
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
		logger:     logger.With().Str("service", "ChatService").Logger(),
	}
}

func (s *chatService) Chat(ctx context.Context, sessionID, prompt string) (*ChatReply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrInvalidInput
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	expiresAt := s.now().Add(s.ttl)

	if _, err := s.repo.AppendMessage(ctx, sessionID, "user", prompt, expiresAt); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to store user message")
		return nil, fmt.Errorf("store message: %w", err)
	}
	response := "Echo: " + prompt
	if _, err := s.repo.AppendMessage(ctx, sessionID, "assistant", response, expiresAt); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to store assistant message")
		return nil, fmt.Errorf("store message: %w", err)
	}

	history, err := s.repo.ListMessages(ctx, sessionID, s.maxHistory)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &ChatReply{Response: response, SessionID: sessionID, HistoryLength: len(history)}, nil
}

func (s *chatService) EvictExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("Evicted expired chat messages")
	}
	return n, nil
}
