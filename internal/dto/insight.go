package dto

type InsightRequest struct {
	ExpenseType string    `json:"expenseType"`
	Categories  []string  `json:"categories"`
	Amounts     []float64 `json:"amounts"`
}

type InsightResponse struct {
	Success  bool     `json:"success"`
	Insights []string `json:"insights"`
}
