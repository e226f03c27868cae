package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cost-sage/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type scriptedBackend struct {
	mu      sync.Mutex
	results []error
	text    string
	calls   int
	models  []string
	block   bool
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Generate(ctx context.Context, model string, _ []ChatMessage) (string, error) {
	b.mu.Lock()
	b.calls++
	b.models = append(b.models, model)
	var err error
	if len(b.results) > 0 {
		err = b.results[0]
		b.results = b.results[1:]
	}
	b.mu.Unlock()

	if b.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return b.text, nil
}

func (b *scriptedBackend) Close() error { return nil }

func newTestLLM(backend completionBackend, retries int) *LLMService {
	svc := newLLMService(backend, &config.LLMConfig{
		Model:      "GigaChat",
		Models:     []string{"GigaChat-Pro", "GigaChat-Max"},
		Timeout:    50 * time.Millisecond,
		MaxRetries: retries,
	}, zap.NewNop())
	svc.retryInterval = time.Millisecond
	return svc
}

func TestLLMService_ResolveModel(t *testing.T) {
	svc := newTestLLM(&scriptedBackend{}, 0)

	assert.Equal(t, "GigaChat-Pro", svc.ResolveModel("GigaChat-Pro"))
	assert.Equal(t, "GigaChat", svc.ResolveModel("gpt-4"))
	assert.Equal(t, "GigaChat", svc.ResolveModel(""))
}

func TestLLMService_RetriesTransientFailures(t *testing.T) {
	backend := &scriptedBackend{results: []error{errBoom, errBoom}, text: "ok"}
	svc := newTestLLM(backend, 2)

	text, err := svc.Complete(context.Background(), "GigaChat-Max", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, backend.calls)
	assert.Equal(t, []string{"GigaChat-Max", "GigaChat-Max", "GigaChat-Max"}, backend.models)
}

func TestLLMService_GivesUpAfterMaxRetries(t *testing.T) {
	backend := &scriptedBackend{results: []error{errBoom, errBoom, errBoom, errBoom}}
	svc := newTestLLM(backend, 1)

	_, err := svc.Complete(context.Background(), "", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 2, backend.calls)
}

func TestLLMService_PerAttemptTimeout(t *testing.T) {
	backend := &scriptedBackend{block: true}
	svc := newTestLLM(backend, 1)

	start := time.Now()
	_, err := svc.Complete(context.Background(), "", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 2, backend.calls)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLLMService_CallerCancellationStopsRetries(t *testing.T) {
	backend := &scriptedBackend{block: true}
	svc := newTestLLM(backend, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Complete(ctx, "", []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, backend.calls)
}

func TestLLMService_SanitizesOutput(t *testing.T) {
	backend := &scriptedBackend{text: "fine\xffthen"}
	svc := newTestLLM(backend, 0)

	text, err := svc.Complete(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "finethen", text)
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]ChatMessage{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []ChatMessage{{Role: RoleUser, Content: "q"}}, rest)

	system, _ = splitSystem([]ChatMessage{{Role: RoleUser, Content: "q"}})
	assert.Equal(t, financeSystemInstruction, system)
}

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (g *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.model = model
	g.contents = contents
	g.config = config
	return g.resp, g.err
}

func TestGeminiBackend_Generate(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: " 1. Spend less \n"}}},
		}},
	}}
	backend := &geminiBackend{generator: gen}

	text, err := backend.Generate(context.Background(), "gemini-2.5-flash", []ChatMessage{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Spend less", text)
	assert.Equal(t, "gemini-2.5-flash", gen.model)

	require.Len(t, gen.contents, 3)
	assert.Equal(t, "user", gen.contents[0].Role)
	assert.Equal(t, "model", gen.contents[1].Role)
	assert.Equal(t, "q2", gen.contents[2].Parts[0].Text)
	assert.Equal(t, "sys", gen.config.SystemInstruction.Parts[0].Text)
}

func TestGeminiBackend_Error(t *testing.T) {
	backend := &geminiBackend{generator: &fakeGenerator{err: errors.New("quota")}}

	_, err := backend.Generate(context.Background(), "m", []ChatMessage{{Role: RoleUser, Content: "q"}})
	assert.Error(t, err)

	backend = &geminiBackend{generator: &fakeGenerator{}}
	_, err = backend.Generate(context.Background(), "m", []ChatMessage{{Role: RoleUser, Content: "q"}})
	assert.Error(t, err)
}
