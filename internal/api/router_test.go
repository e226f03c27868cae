package api

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"cost-sage/internal/api/handlers"
	"cost-sage/internal/dto"
	"cost-sage/internal/models"
	"cost-sage/internal/service"
	"cost-sage/pkg/config"
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenAuth struct{}

func (tokenAuth) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	switch token {
	case "":
		return nil, service.ErrMissingToken
	case "good":
		return &models.Identity{UserID: uuid.New(), Email: "alice@example.com", Token: token}, nil
	default:
		return nil, service.ErrInvalidToken
	}
}

// recordingExpenses remembers which read operation served the request.
type recordingExpenses struct {
	called string
	param  string
}

func (r *recordingExpenses) AddBatch(context.Context, *models.Identity, *dto.AddExpensesRequest, string) (bool, error) {
	r.called = "add"
	return true, nil
}

func (r *recordingExpenses) ListRecent(context.Context, *models.Identity) ([]dto.ExpenseResponse, error) {
	r.called = "recent"
	return nil, nil
}

func (r *recordingExpenses) ListByType(_ context.Context, _ *models.Identity, t string) ([]dto.ExpenseResponse, error) {
	r.called, r.param = "byType", t
	return nil, nil
}

func (r *recordingExpenses) AggregateByCategory(_ context.Context, _ *models.Identity, t string) ([]dto.CategoryAnalysis, error) {
	r.called, r.param = "analysis", t
	return nil, nil
}

func (r *recordingExpenses) Summary(context.Context, *models.Identity) ([]dto.ExpenseTypeSummary, error) {
	r.called = "summary"
	return nil, nil
}

func (r *recordingExpenses) Delete(_ context.Context, _ *models.Identity, id string) error {
	r.called, r.param = "delete", id
	return nil
}

type noAuthService struct{}

func (noAuthService) Register(context.Context, *dto.RegisterRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{Success: true}, nil
}
func (noAuthService) Login(context.Context, *dto.LoginRequest) (*dto.AuthResponse, error) {
	return &dto.AuthResponse{Success: true}, nil
}
func (noAuthService) Logout(context.Context, *models.Identity) error { return nil }
func (noAuthService) Status(context.Context, *models.Identity) (*dto.AuthStatusResponse, error) {
	return &dto.AuthStatusResponse{Success: true}, nil
}

type noInsights struct{}

func (noInsights) Generate(context.Context, *dto.InsightRequest) ([]string, error) {
	return []string{"ok"}, nil
}

type noChats struct{}

func (noChats) CreateChat(context.Context, *models.Identity, *dto.NewChatRequest) (string, error) {
	return "c", nil
}
func (noChats) AppendMessage(context.Context, *models.Identity, string, *dto.AppendMessageRequest) (string, error) {
	return "c", nil
}
func (noChats) ListChats(context.Context, *models.Identity, string) ([]dto.ChatResponse, error) {
	return nil, nil
}
func (noChats) DeleteChat(context.Context, *models.Identity, string) error { return nil }
func (noChats) Complete(context.Context, *dto.CompletionRequest) (*dto.CompletionMessage, error) {
	return &dto.CompletionMessage{Role: "assistant", Content: "hi"}, nil
}
func (noChats) Reply(context.Context, *models.Identity, string, *dto.ReplyRequest) (*dto.MessageResponse, error) {
	return &dto.MessageResponse{}, nil
}

type noUploads struct{}

func (noUploads) Save(context.Context, *models.Identity, io.Reader, string, string) (*dto.UploadResponse, error) {
	return &dto.UploadResponse{}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, expenses *recordingExpenses, db pinger) *fiber.App {
	t.Helper()
	logger := zap.NewNop()

	cfg := &config.Config{
		Server:    config.ServerConfig{CORSOrigins: "*"},
		Upload:    config.UploadConfig{Dir: t.TempDir(), MaxBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{RPS: 100, Burst: 100},
	}

	h := Handlers{
		Auth:    handlers.NewAuthHandler(noAuthService{}, logger),
		Expense: handlers.NewExpenseHandler(expenses, logger),
		Insight: handlers.NewInsightHandler(noInsights{}, logger),
		Chat:    handlers.NewChatHandler(noChats{}, logger),
		Upload:  handlers.NewUploadHandler(noUploads{}, logger),
		Health:  handlers.NewHealthHandler(db, logger),
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
	return SetupRouter(cfg, h, tokenAuth{}, limiter, logger)
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRouter_ExpenseRouteOrdering(t *testing.T) {
	expenses := &recordingExpenses{}
	app := newTestRouter(t, expenses, pinger{})

	tests := []struct {
		path   string
		called string
		param  string
	}{
		{"/api/expenses/recent", "recent", ""},
		{"/api/expenses/summary", "summary", ""},
		{"/api/expenses/analysis/daily-expense-tracker", "analysis", "daily-expense-tracker"},
		{"/api/expenses/daily%20expense%20tracker", "byType", "daily expense tracker"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			*expenses = recordingExpenses{}
			assert.Equal(t, fiber.StatusOK, get(t, app, tt.path, "good"))
			assert.Equal(t, tt.called, expenses.called)
			assert.Equal(t, tt.param, expenses.param)
		})
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	app := newTestRouter(t, &recordingExpenses{}, pinger{})

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/api/expenses/recent", ""))
	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/api/expenses/recent", "forged"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/api/auth-status", ""))
	assert.Equal(t, fiber.StatusOK, get(t, app, "/api/auth-status", "good"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/api/chats/alice@example.com", ""))
}

func TestRouter_PublicEndpoints(t *testing.T) {
	app := newTestRouter(t, &recordingExpenses{}, pinger{})
	assert.Equal(t, fiber.StatusOK, get(t, app, "/health", ""))
	assert.Equal(t, fiber.StatusOK, get(t, app, "/metrics", ""))
	assert.Equal(t, fiber.StatusNotFound, get(t, app, "/api/nope", "good"))

	down := newTestRouter(t, &recordingExpenses{}, pinger{err: errors.New("connection refused")})
	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, down, "/health", ""))
}
