package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ExpenseType string

const (
	ExpenseTypeFull     ExpenseType = "full expense tracker"
	ExpenseTypeBusiness ExpenseType = "business expense tracker"
	ExpenseTypePersonal ExpenseType = "personal expense tracker"
	ExpenseTypeDaily    ExpenseType = "daily expense tracker"
	ExpenseTypeOther    ExpenseType = "other expenses"
)

var ExpenseTypes = []ExpenseType{
	ExpenseTypeFull,
	ExpenseTypeBusiness,
	ExpenseTypePersonal,
	ExpenseTypeDaily,
	ExpenseTypeOther,
}

var expenseTypeAliases = map[string]ExpenseType{
	"full":     ExpenseTypeFull,
	"business": ExpenseTypeBusiness,
	"personal": ExpenseTypePersonal,
	"daily":    ExpenseTypeDaily,
	"other":    ExpenseTypeOther,
}

// ParseExpenseType accepts the canonical literals case-insensitively, the
// hyphenated slugs the SPA puts in URLs ("daily-expense-tracker") and the short
// forms ("daily").
func ParseExpenseType(s string) (ExpenseType, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	for _, t := range ExpenseTypes {
		if string(t) == norm {
			return t, true
		}
	}
	if t, ok := expenseTypeAliases[norm]; ok {
		return t, true
	}
	return "", false
}

type Expense struct {
	ID          uuid.UUID   `db:"id"`
	Username    string      `db:"username"`
	UserEmail   string      `db:"user_email"`
	Amount      float64     `db:"amount"`
	Category    string      `db:"category"`
	Description string      `db:"description"`
	Date        string      `db:"date"` // as entered by the client, sorted lexically
	ExpenseType ExpenseType `db:"expense_type"`
	CreatedAt   time.Time   `db:"created_at"`
}

type CategoryTotal struct {
	Category    string
	TotalAmount float64
	Count       int
}

type ExpenseTypeTotal struct {
	ExpenseType ExpenseType
	TotalAmount float64
	Count       int
}
