package service

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ContentGenerator is the slice of *genai.Models the Gemini backend uses.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type geminiBackend struct {
	generator ContentGenerator
}

func newGeminiBackend(ctx context.Context, apiKey string) (*geminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiBackend{generator: client.Models}, nil
}

func (b *geminiBackend) Name() string { return "gemini" }

func (b *geminiBackend) Generate(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	system, turns := splitSystem(messages)

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	resp, err := b.generator.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("genai.GenerateContent: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response from Gemini")
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (b *geminiBackend) Close() error { return nil }
