package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"cost-sage/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

func TestInsightService_Generate(t *testing.T) {
	llm := &fakeCompleter{reply: "Here you go:\n1. Rent dominates spending.\n2) Food is moderate.\n\n3. Consider renegotiating the lease."}
	svc := NewInsightService(llm, zap.NewNop())

	insights, err := svc.Generate(context.Background(), &dto.InsightRequest{
		ExpenseType: "business expense tracker",
		Categories:  []string{"Rent", "Food"},
		Amounts:     []float64{1200, 45.5},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Rent dominates spending.",
		"Food is moderate.",
		"Consider renegotiating the lease.",
	}, insights)

	require.Len(t, llm.lastMsgs, 2)
	assert.Equal(t, RoleSystem, llm.lastMsgs[0].Role)
	assert.Equal(t,
		"Analyze the following expense data for business expense tracker and provide 3-5 numbered insights (e.g., \"1. Insight text\"):\nCategories: Rent, Food\nAmounts: 1200, 45.5",
		llm.lastMsgs[1].Content,
	)
}

func TestInsightService_ValidationSkipsProvider(t *testing.T) {
	tests := []struct {
		name string
		req  *dto.InsightRequest
	}{
		{"mismatched lengths", &dto.InsightRequest{ExpenseType: "daily", Categories: []string{"a", "b", "c"}, Amounts: []float64{1, 2}}},
		{"empty categories", &dto.InsightRequest{ExpenseType: "daily", Amounts: []float64{1}}},
		{"empty amounts", &dto.InsightRequest{ExpenseType: "daily", Categories: []string{"a"}}},
		{"missing type", &dto.InsightRequest{Categories: []string{"a"}, Amounts: []float64{1}}},
		{"non-finite amount", &dto.InsightRequest{ExpenseType: "daily", Categories: []string{"a"}, Amounts: []float64{math.Inf(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{reply: "1. x"}
			svc := NewInsightService(llm, zap.NewNop())

			_, err := svc.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, llm.calls)
		})
	}
}

func TestInsightService_UpstreamFailure(t *testing.T) {
	llm := &fakeCompleter{err: fmt.Errorf("%w: timeout", ErrUpstream)}
	svc := NewInsightService(llm, zap.NewNop())

	_, err := svc.Generate(context.Background(), &dto.InsightRequest{
		ExpenseType: "daily", Categories: []string{"a"}, Amounts: []float64{1},
	})
	assert.ErrorIs(t, err, ErrInsightGeneration)
}

func TestInsightService_EmptyCompletion(t *testing.T) {
	llm := &fakeCompleter{reply: "   \n  "}
	svc := NewInsightService(llm, zap.NewNop())

	_, err := svc.Generate(context.Background(), &dto.InsightRequest{
		ExpenseType: "daily", Categories: []string{"a"}, Amounts: []float64{1},
	})
	assert.ErrorIs(t, err, ErrInsightGeneration)
}

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"numbered", "1. a\n2. b", []string{"a", "b"}},
		{"paren and indent", "  1) a\n\t2) b", []string{"a", "b"}},
		{"skips prose", "Intro\n1. a\nNote: stuff\n2. b\nOutro", []string{"a", "b"}},
		{"caps at five", "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g", []string{"a", "b", "c", "d", "e"}},
		{"falls back to raw text", "  Spending looks healthy overall.  ", []string{"Spending looks healthy overall."}},
		{"empty", "", []string{}},
		{"numbering only", "1.\n2)", []string{"1.\n2)"}},
		{"decimal is not numbering", "Food is 40% of spend.\n1.5% of budget goes to travel", []string{"Food is 40% of spend.\n1.5% of budget goes to travel"}},
		{"decimal among numbered", "1. Rent dominates\n2.5% goes to fees\n2. Cut dining", []string{"Rent dominates", "Cut dining"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInsights(tt.in))
		})
	}
}

func TestParseInsights_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`[0-9]{0,2}[.)]? ?[a-z ]{0,12}`), 0, 12).Draw(t, "lines")
		text := strings.Join(lines, "\n")

		got := ParseInsights(text)

		if len(got) > maxInsights {
			t.Fatalf("got %d insights", len(got))
		}
		if strings.TrimSpace(text) != "" && len(got) == 0 {
			t.Fatalf("non-empty text %q produced no insights", text)
		}
		for _, g := range got {
			if g != strings.TrimSpace(g) || g == "" {
				t.Fatalf("insight %q is not trimmed", g)
			}
		}
	})
}
