// Package chat relays customer questions to an OpenAI-compatible completion
// API under a fixed beauty-advisor persona.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ecosopis/storefront/internal/config"
	"github.com/ecosopis/storefront/internal/domain"
	"github.com/ecosopis/storefront/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

const maxMessageLength = 2000

type Relay struct {
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker[string]
	model   string
	persona string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRelay(cfg config.ChatConfig, m *metrics.Metrics, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "chat")

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "chat-completion",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a caller hanging up says nothing about the upstream's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Relay{
		client:  openai.NewClientWithConfig(clientCfg),
		breaker: breaker,
		model:   cfg.Model,
		persona: cfg.Persona,
		timeout: cfg.Timeout,
		metrics: m,
		logger:  logger,
	}
}

// Reply returns the advisor's answer to message. Every upstream problem,
// including an open breaker, surfaces as domain.ErrUpstream.
func (r *Relay) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.NewValidationError("message", "must not be empty")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return "", domain.NewValidationError("message", fmt.Sprintf("must be at most %d characters", maxMessageLength))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reply, err := r.breaker.Execute(func() (string, error) {
		return r.complete(ctx, message)
	})
	if err != nil {
		r.record("error")
		r.logger.ErrorContext(ctx, "chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion: %w: %w", domain.ErrUpstream, err)
	}

	r.record("ok")
	return reply, nil
}

func (r *Relay) complete(ctx context.Context, message string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.persona},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (r *Relay) record(outcome string) {
	if r.metrics != nil {
		r.metrics.ChatRequest(outcome)
	}
}
