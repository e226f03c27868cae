package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"cost-sage/internal/dto"

	"go.uber.org/zap"
)

const maxInsights = 5

var numberedLine = regexp.MustCompile(`^\s*\d+[.)](\s+|$)`)

type InsightService struct {
	llm    Completer
	logger *zap.Logger
}

func NewInsightService(llm Completer, logger *zap.Logger) *InsightService {
	return &InsightService{
		llm:    llm,
		logger: logger,
	}
}

// Generate asks the completion provider for numbered insights about parallel
// category/amount lists. Input is validated before any external call.
func (s *InsightService) Generate(ctx context.Context, req *dto.InsightRequest) ([]string, error) {
	if err := validateInsightRequest(req); err != nil {
		return nil, err
	}

	prompt := buildInsightPrompt(req)
	text, err := s.llm.Complete(ctx, "", []ChatMessage{
		{Role: RoleSystem, Content: financeSystemInstruction},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsightGeneration, err)
	}

	insights := ParseInsights(text)
	if len(insights) == 0 {
		s.logger.Warn("Completion returned no insights", zap.String("expense_type", req.ExpenseType))
		return nil, ErrInsightGeneration
	}

	s.logger.Info("Insights generated",
		zap.String("expense_type", req.ExpenseType),
		zap.Int("categories", len(req.Categories)),
		zap.Int("insights", len(insights)),
	)
	return insights, nil
}

func validateInsightRequest(req *dto.InsightRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.ExpenseType) == "" {
		fields["expenseType"] = "required"
	}
	if len(req.Categories) == 0 {
		fields["categories"] = "required"
	}
	if len(req.Amounts) == 0 {
		fields["amounts"] = "required"
	}
	if len(req.Categories) > 0 && len(req.Amounts) > 0 && len(req.Categories) != len(req.Amounts) {
		fields["amounts"] = "len=categories"
	}
	for i, a := range req.Amounts {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			fields[fmt.Sprintf("amounts[%d]", i)] = "finite"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Message: "Invalid insight request", Fields: fields}
	}
	return nil
}

func buildInsightPrompt(req *dto.InsightRequest) string {
	amounts := make([]string, 0, len(req.Amounts))
	for _, a := range req.Amounts {
		amounts = append(amounts, strconv.FormatFloat(a, 'f', -1, 64))
	}
	return fmt.Sprintf(
		"Analyze the following expense data for %s and provide 3-5 numbered insights (e.g., \"1. Insight text\"):\nCategories: %s\nAmounts: %s",
		req.ExpenseType,
		strings.Join(req.Categories, ", "),
		strings.Join(amounts, ", "),
	)
}

// ParseInsights keeps numbered lines with their numbering stripped, up to
// five. Text without any numbered line is returned whole as one insight.
func ParseInsights(text string) []string {
	insights := make([]string, 0, maxInsights)
	for _, line := range strings.Split(text, "\n") {
		if !numberedLine.MatchString(line) {
			continue
		}
		insight := strings.TrimSpace(numberedLine.ReplaceAllString(line, ""))
		if insight == "" {
			continue
		}
		insights = append(insights, insight)
		if len(insights) == maxInsights {
			break
		}
	}

	if len(insights) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			insights = append(insights, trimmed)
		}
	}
	return insights
}
