package dto

type ExpenseItem struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=500"`
	Date        string  `json:"date" validate:"required,max=32"`
}

type AddExpensesRequest struct {
	Expenses    []ExpenseItem `json:"expenses" validate:"required,min=1,max=500,dive"`
	ExpenseType string        `json:"expenseType" validate:"required"`
}

type ExpenseResponse struct {
	ID          string  `json:"_id"`
	Username    string  `json:"username"`
	UserEmail   string  `json:"userEmail"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	ExpenseType string  `json:"expenseType"`
	CreatedAt   string  `json:"createdAt"`
}

type ExpenseListResponse struct {
	Success  bool              `json:"success"`
	Expenses []ExpenseResponse `json:"expenses"`
}

// CategoryAnalysis keeps "_id" because clients were written against a
// group-by-category aggregation that keyed results that way.
type CategoryAnalysis struct {
	ID          string  `json:"_id"`
	Category    string  `json:"category"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
}

type AnalysisResponse struct {
	Success  bool               `json:"success"`
	Analysis []CategoryAnalysis `json:"analysis"`
	Message  string             `json:"message"`
}

type ExpenseTypeSummary struct {
	ExpenseType string  `json:"expenseType"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
}

type SummaryResponse struct {
	Success bool                 `json:"success"`
	Summary []ExpenseTypeSummary `json:"summary"`
}
