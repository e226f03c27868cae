package service

import (
	"context"
	"fmt"
	"strings"

	"cost-sage/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

type gigaChatBackend struct {
	client *gigago.Client
}

func newGigaChatBackend(ctx context.Context, cfg *config.LLMConfig, logger *zap.Logger) (*gigaChatBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GigaChat API key is required")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.GigaChatScope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}
	return &gigaChatBackend{client: client}, nil
}

func (b *gigaChatBackend) Name() string { return "gigachat" }

// Generate builds a fresh model per call; SystemInstruction is per conversation.
func (b *gigaChatBackend) Generate(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	system, turns := splitSystem(messages)

	m := b.client.GenerativeModel(model)
	m.SystemInstruction = system
	m.Temperature = 0.3

	history := make([]gigago.Message, 0, len(turns))
	for _, t := range turns {
		role := gigago.RoleUser
		if t.Role == RoleAssistant {
			role = gigago.RoleAssistant
		}
		history = append(history, gigago.Message{Role: role, Content: t.Content})
	}

	resp, err := m.Generate(ctx, history)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from GigaChat")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (b *gigaChatBackend) Close() error {
	if b.client != nil {
		b.client.Close()
	}
	return nil
}
