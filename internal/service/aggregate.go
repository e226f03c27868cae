package service

import (
	"sort"

	"cost-sage/internal/models"

	"github.com/shopspring/decimal"
)

// AggregateByCategory groups expenses by category, summing amounts exactly.
// Results are ordered by total descending, ties broken by category name.
func AggregateByCategory(expenses []*models.Expense) []models.CategoryTotal {
	type bucket struct {
		total decimal.Decimal
		count int
	}

	buckets := make(map[string]*bucket)
	for _, e := range expenses {
		b, ok := buckets[e.Category]
		if !ok {
			b = &bucket{total: decimal.Zero}
			buckets[e.Category] = b
		}
		b.total = b.total.Add(decimal.NewFromFloat(e.Amount))
		b.count++
	}

	out := make([]models.CategoryTotal, 0, len(buckets))
	for category, b := range buckets {
		out = append(out, models.CategoryTotal{
			Category:    category,
			TotalAmount: b.total.InexactFloat64(),
			Count:       b.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SummarizeByType totals expenses per tracker type in the canonical type order.
// Types without expenses are reported with zero totals.
func SummarizeByType(expenses []*models.Expense) []models.ExpenseTypeTotal {
	totals := make(map[models.ExpenseType]decimal.Decimal, len(models.ExpenseTypes))
	counts := make(map[models.ExpenseType]int, len(models.ExpenseTypes))
	for _, e := range expenses {
		totals[e.ExpenseType] = totals[e.ExpenseType].Add(decimal.NewFromFloat(e.Amount))
		counts[e.ExpenseType]++
	}

	out := make([]models.ExpenseTypeTotal, 0, len(models.ExpenseTypes))
	for _, t := range models.ExpenseTypes {
		out = append(out, models.ExpenseTypeTotal{
			ExpenseType: t,
			TotalAmount: totals[t].InexactFloat64(),
			Count:       counts[t],
		})
	}
	return out
}
