package repository

import (
	"context"

	"cost-sage/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

var expenseColumns = []string{"id", "username", "user_email", "amount", "category", "description", "date", "expense_type", "created_at"}

type ExpenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch writes all expenses with a single multi-row INSERT, so either
// every row lands or none does.
func (r *ExpenseRepository) CreateBatch(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	builder := psql.Insert("expenses").Columns(expenseColumns...)
	for _, e := range expenses {
		builder = builder.Values(e.ID, e.Username, e.UserEmail, e.Amount, e.Category, e.Description, e.Date, string(e.ExpenseType), e.CreatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return mapError(err)
}

func (r *ExpenseRepository) ListRecent(ctx context.Context, userEmail string, limit int) ([]*models.Expense, error) {
	query := psql.Select(expenseColumns...).
		From("expenses").
		Where(squirrel.Eq{"user_email": userEmail}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	return r.list(ctx, query)
}

// ListByType orders by the client-supplied date string, newest first.
func (r *ExpenseRepository) ListByType(ctx context.Context, userEmail string, expenseType models.ExpenseType) ([]*models.Expense, error) {
	query := psql.Select(expenseColumns...).
		From("expenses").
		Where(squirrel.Eq{"user_email": userEmail, "expense_type": string(expenseType)}).
		OrderBy("date DESC", "created_at DESC")
	return r.list(ctx, query)
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Expense, error) {
	query := psql.Select(expenseColumns...).
		From("expenses").
		Where(squirrel.Eq{"user_email": userEmail}).
		OrderBy("created_at DESC")
	return r.list(ctx, query)
}

// OwnerEmail returns the email owning the expense, or ErrNotFound.
func (r *ExpenseRepository) OwnerEmail(ctx context.Context, id uuid.UUID) (string, error) {
	sql, args, err := psql.Select("user_email").
		From("expenses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", err
	}

	var email string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&email); err != nil {
		return "", mapError(err)
	}
	return email, nil
}

// Delete removes the expense only if userEmail owns it.
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID, userEmail string) error {
	sql, args, err := psql.Delete("expenses").
		Where(squirrel.Eq{"id": id, "user_email": userEmail}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Expense, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]*models.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var (
		e           models.Expense
		expenseType string
	)
	if err := row.Scan(
		&e.ID, &e.Username, &e.UserEmail, &e.Amount, &e.Category, &e.Description, &e.Date, &expenseType, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.ExpenseType = models.ExpenseType(expenseType)
	return &e, nil
}
