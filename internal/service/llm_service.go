package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cost-sage/pkg/config"
	"cost-sage/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged turn sent to a completion provider.
type ChatMessage struct {
	Role    string
	Content string
}

// Completer produces the next assistant turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, model string, messages []ChatMessage) (string, error)
}

// completionBackend is a single provider call without retries.
type completionBackend interface {
	Name() string
	Generate(ctx context.Context, model string, messages []ChatMessage) (string, error)
	Close() error
}

const financeSystemInstruction = `You are a professional financial analyst helping small businesses and individuals understand their spending.
Give concrete, actionable observations grounded in the numbers you are shown.
Be concise. Do not invent figures that were not provided.`

type LLMService struct {
	backend       completionBackend
	defaultModel  string
	allowed       map[string]struct{}
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.Logger
}

func NewLLMService(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (*LLMService, error) {
	var (
		backend completionBackend
		err     error
	)
	switch cfg.Provider {
	case "gemini":
		backend, err = newGeminiBackend(ctx, cfg.APIKey)
	default:
		backend, err = newGigaChatBackend(ctx, cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM provider initialized",
		zap.String("provider", backend.Name()),
		zap.String("default_model", cfg.Model),
		zap.Strings("models", cfg.Models),
	)
	return newLLMService(backend, cfg, logger), nil
}

func newLLMService(backend completionBackend, cfg *config.LLMConfig, logger *zap.Logger) *LLMService {
	allowed := make(map[string]struct{}, len(cfg.Models)+1)
	allowed[cfg.Model] = struct{}{}
	for _, m := range cfg.Models {
		allowed[m] = struct{}{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &LLMService{
		backend:       backend,
		defaultModel:  cfg.Model,
		allowed:       allowed,
		timeout:       timeout,
		maxRetries:    retries,
		retryInterval: 500 * time.Millisecond,
		logger:        logger,
	}
}

// ResolveModel returns requested if it is a configured model, otherwise the default.
func (s *LLMService) ResolveModel(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s.allowed[requested]; ok && requested != "" {
		return requested
	}
	return s.defaultModel
}

// Complete calls the provider with a per-attempt timeout, retrying transient
// failures with exponential backoff. Errors wrap ErrUpstream.
func (s *LLMService) Complete(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	model = s.ResolveModel(model)
	start := time.Now()

	var (
		text     string
		attempts int
	)
	operation := func() error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		out, err := s.backend.Generate(attemptCtx, model, messages)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			s.logger.Warn("Completion attempt failed",
				zap.String("provider", s.backend.Name()),
				zap.String("model", model),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			return err
		}
		text = sanitizeUTF8(out)
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxRetries)), ctx)

	err := backoff.Retry(operation, policy)
	metrics.LLMDuration.WithLabelValues(s.backend.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues(s.backend.Name(), "error").Inc()
		s.logger.Error("Completion failed",
			zap.String("provider", s.backend.Name()),
			zap.String("model", model),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	metrics.LLMRequests.WithLabelValues(s.backend.Name(), "ok").Inc()
	s.logger.Debug("Completion succeeded",
		zap.String("provider", s.backend.Name()),
		zap.String("model", model),
		zap.Int("attempts", attempts),
		zap.Int("length", len(text)),
	)
	return text, nil
}

func (s *LLMService) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// splitSystem separates system turns from the conversation.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system []string
	rest := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	if len(system) == 0 {
		return financeSystemInstruction, rest
	}
	return strings.Join(system, "\n\n"), rest
}
