package handlers

import (
	"context"
	"io"

	"cost-sage/internal/dto"
	"cost-sage/internal/models"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, identity *models.Identity) error
	Status(ctx context.Context, identity *models.Identity) (*dto.AuthStatusResponse, error)
}

type ExpenseService interface {
	AddBatch(ctx context.Context, identity *models.Identity, req *dto.AddExpensesRequest, idempotencyKey string) (bool, error)
	ListRecent(ctx context.Context, identity *models.Identity) ([]dto.ExpenseResponse, error)
	ListByType(ctx context.Context, identity *models.Identity, expenseType string) ([]dto.ExpenseResponse, error)
	AggregateByCategory(ctx context.Context, identity *models.Identity, expenseType string) ([]dto.CategoryAnalysis, error)
	Summary(ctx context.Context, identity *models.Identity) ([]dto.ExpenseTypeSummary, error)
	Delete(ctx context.Context, identity *models.Identity, id string) error
}

type InsightService interface {
	Generate(ctx context.Context, req *dto.InsightRequest) ([]string, error)
}

type ChatService interface {
	CreateChat(ctx context.Context, identity *models.Identity, req *dto.NewChatRequest) (string, error)
	AppendMessage(ctx context.Context, identity *models.Identity, chatID string, req *dto.AppendMessageRequest) (string, error)
	ListChats(ctx context.Context, identity *models.Identity, userEmail string) ([]dto.ChatResponse, error)
	DeleteChat(ctx context.Context, identity *models.Identity, chatID string) error
	Complete(ctx context.Context, req *dto.CompletionRequest) (*dto.CompletionMessage, error)
	Reply(ctx context.Context, identity *models.Identity, chatID string, req *dto.ReplyRequest) (*dto.MessageResponse, error)
}

type UploadService interface {
	Save(ctx context.Context, identity *models.Identity, file io.Reader, fileName, contentType string) (*dto.UploadResponse, error)
}
