package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cost-sage/internal/dto"
	"cost-sage/internal/models"
	"cost-sage/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentExpensesLimit = 5

type ExpenseStore interface {
	CreateBatch(ctx context.Context, expenses []*models.Expense) error
	ListRecent(ctx context.Context, userEmail string, limit int) ([]*models.Expense, error)
	ListByType(ctx context.Context, userEmail string, expenseType models.ExpenseType) ([]*models.Expense, error)
	ListByUser(ctx context.Context, userEmail string) ([]*models.Expense, error)
	OwnerEmail(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID, userEmail string) error
}

type ExpenseService struct {
	expenses    ExpenseStore
	idempotency IdempotencyStore
	logger      *zap.Logger
	now         func() time.Time
}

func NewExpenseService(expenses ExpenseStore, idempotency IdempotencyStore, logger *zap.Logger) *ExpenseService {
	if idempotency == nil {
		idempotency = NoopIdempotencyStore{}
	}
	return &ExpenseService{
		expenses:    expenses,
		idempotency: idempotency,
		logger:      logger,
		now:         time.Now,
	}
}

// AddBatch validates and stores every item or none. A non-empty
// idempotencyKey makes repeated submissions of the same batch a no-op once the
// first one has been stored, and ErrRequestInFlight while it is still running.
// The returned bool reports whether rows were inserted.
func (s *ExpenseService) AddBatch(ctx context.Context, identity *models.Identity, req *dto.AddExpensesRequest, idempotencyKey string) (bool, error) {
	if err := validateStruct("Invalid expense data", req); err != nil {
		return false, err
	}

	expenseType, ok := models.ParseExpenseType(req.ExpenseType)
	if !ok {
		return false, &ValidationError{
			Message: "Invalid expense data",
			Fields:  map[string]string{"expenseType": "oneof"},
		}
	}

	for i, item := range req.Expenses {
		if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) {
			return false, &ValidationError{
				Message: "Invalid expense data",
				Fields:  map[string]string{fmt.Sprintf("expenses[%d].amount", i): "finite"},
			}
		}
	}

	key := ""
	if idempotencyKey = strings.TrimSpace(idempotencyKey); idempotencyKey != "" {
		key = fmt.Sprintf("idem:expenses:%s:%s", identity.UserID, idempotencyKey)
		state, err := s.idempotency.Claim(ctx, key)
		if err != nil {
			return false, err
		}
		switch state {
		case ClaimDone:
			s.logger.Info("Duplicate expense batch ignored",
				zap.String("user_id", identity.UserID.String()),
				zap.String("idempotency_key", idempotencyKey),
			)
			return false, nil
		case ClaimPending:
			s.logger.Info("Expense batch with the same key is in flight",
				zap.String("user_id", identity.UserID.String()),
				zap.String("idempotency_key", idempotencyKey),
			)
			return false, ErrRequestInFlight
		}
	}

	now := s.now().UTC()
	expenses := make([]*models.Expense, 0, len(req.Expenses))
	for _, item := range req.Expenses {
		expenses = append(expenses, &models.Expense{
			ID:          uuid.New(),
			Username:    identity.Name,
			UserEmail:   identity.Email,
			Amount:      item.Amount,
			Category:    strings.TrimSpace(item.Category),
			Description: strings.TrimSpace(item.Description),
			Date:        strings.TrimSpace(item.Date),
			ExpenseType: expenseType,
			CreatedAt:   now,
		})
	}

	if err := s.expenses.CreateBatch(ctx, expenses); err != nil {
		if key != "" {
			if rerr := s.idempotency.Release(ctx, key); rerr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.Error(rerr))
			}
		}
		return false, fmt.Errorf("create expenses: %w", err)
	}

	if key != "" {
		if err := s.idempotency.Complete(ctx, key); err != nil {
			// the rows are stored; a retry in this window sees 409, not a duplicate insert
			s.logger.Warn("Failed to complete idempotency key", zap.Error(err))
		}
	}

	metrics.ExpensesCreated.Add(float64(len(expenses)))
	s.logger.Info("Expenses added",
		zap.String("user_id", identity.UserID.String()),
		zap.String("expense_type", string(expenseType)),
		zap.Int("count", len(expenses)),
	)
	return true, nil
}

func (s *ExpenseService) ListRecent(ctx context.Context, identity *models.Identity) ([]dto.ExpenseResponse, error) {
	expenses, err := s.expenses.ListRecent(ctx, identity.Email, recentExpensesLimit)
	if err != nil {
		return nil, err
	}
	return toExpenseResponses(expenses), nil
}

func (s *ExpenseService) ListByType(ctx context.Context, identity *models.Identity, rawType string) ([]dto.ExpenseResponse, error) {
	expenseType, err := parseExpenseType(rawType)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenses.ListByType(ctx, identity.Email, expenseType)
	if err != nil {
		return nil, err
	}
	return toExpenseResponses(expenses), nil
}

func (s *ExpenseService) AggregateByCategory(ctx context.Context, identity *models.Identity, rawType string) ([]dto.CategoryAnalysis, error) {
	expenseType, err := parseExpenseType(rawType)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenses.ListByType(ctx, identity.Email, expenseType)
	if err != nil {
		return nil, err
	}

	totals := AggregateByCategory(expenses)
	analysis := make([]dto.CategoryAnalysis, 0, len(totals))
	for _, t := range totals {
		analysis = append(analysis, dto.CategoryAnalysis{
			ID:          t.Category,
			Category:    t.Category,
			TotalAmount: t.TotalAmount,
			Count:       t.Count,
		})
	}
	return analysis, nil
}

func (s *ExpenseService) Summary(ctx context.Context, identity *models.Identity) ([]dto.ExpenseTypeSummary, error) {
	expenses, err := s.expenses.ListByUser(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	totals := SummarizeByType(expenses)
	summary := make([]dto.ExpenseTypeSummary, 0, len(totals))
	for _, t := range totals {
		summary = append(summary, dto.ExpenseTypeSummary{
			ExpenseType: string(t.ExpenseType),
			TotalAmount: t.TotalAmount,
			Count:       t.Count,
		})
	}
	return summary, nil
}

// Delete removes an expense owned by the caller. Foreign or missing
// expenses are left untouched.
func (s *ExpenseService) Delete(ctx context.Context, identity *models.Identity, rawID string) error {
	id, err := parseID(rawID, "id")
	if err != nil {
		return err
	}

	if err := Authorize(ctx, s.expenses.OwnerEmail, id, identity); err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("Expense delete forbidden",
				zap.String("user_id", identity.UserID.String()),
				zap.String("expense_id", id.String()),
			)
		}
		return err
	}

	if err := s.expenses.Delete(ctx, id, identity.Email); err != nil {
		return mapStoreError(err)
	}

	s.logger.Info("Expense deleted", zap.String("expense_id", id.String()))
	return nil
}

func parseExpenseType(raw string) (models.ExpenseType, error) {
	expenseType, ok := models.ParseExpenseType(raw)
	if !ok {
		return "", &ValidationError{
			Message: "Invalid expense type",
			Fields:  map[string]string{"expenseType": "oneof"},
		}
	}
	return expenseType, nil
}

func toExpenseResponses(expenses []*models.Expense) []dto.ExpenseResponse {
	out := make([]dto.ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, dto.ExpenseResponse{
			ID:          e.ID.String(),
			Username:    e.Username,
			UserEmail:   e.UserEmail,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date,
			ExpenseType: string(e.ExpenseType),
			CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
