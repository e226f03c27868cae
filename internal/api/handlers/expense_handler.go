package handlers

import (
	"cost-sage/internal/dto"
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const headerIdempotencyKey = "Idempotency-Key"

type ExpenseHandler struct {
	expenseService ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// AddExpenses godoc
// @Summary Add a batch of expenses
// @Description Stores every item or none. A repeated Idempotency-Key is acknowledged without inserting again.
// @Tags expenses
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client-generated key for safe retries"
// @Param request body dto.AddExpensesRequest true "Expenses"
// @Security Bearer
// @Success 201 {object} dto.StatusResponse
// @Success 200 {object} dto.StatusResponse "Duplicate submission"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Same key still in progress"
// @Router /api/expenses [post]
func (h *ExpenseHandler) AddExpenses(c *fiber.Ctx) error {
	var req dto.AddExpensesRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	inserted, err := h.expenseService.AddBatch(c.UserContext(), middleware.IdentityFrom(c), &req, c.Get(headerIdempotencyKey))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !inserted {
		return c.JSON(dto.StatusResponse{Success: true, Message: "Expenses already added"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.StatusResponse{Success: true, Message: "Expenses added successfully"})
}

// RecentExpenses godoc
// @Summary Five most recent expenses
// @Tags expenses
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ExpenseListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/expenses/recent [get]
func (h *ExpenseHandler) RecentExpenses(c *fiber.Ctx) error {
	expenses, err := h.expenseService.ListRecent(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.ExpenseListResponse{Success: true, Expenses: expenses})
}

// ExpensesByType godoc
// @Summary Expenses of one tracker type
// @Tags expenses
// @Produce json
// @Param expenseType path string true "Expense type, e.g. daily-expense-tracker"
// @Security Bearer
// @Success 200 {object} dto.ExpenseListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/expenses/{expenseType} [get]
func (h *ExpenseHandler) ExpensesByType(c *fiber.Ctx) error {
	expenses, err := h.expenseService.ListByType(c.UserContext(), middleware.IdentityFrom(c), c.Params("expenseType"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.ExpenseListResponse{Success: true, Expenses: expenses})
}

// Analysis godoc
// @Summary Totals per category
// @Description Sum and count per category, largest total first
// @Tags expenses
// @Produce json
// @Param expenseType path string true "Expense type"
// @Security Bearer
// @Success 200 {object} dto.AnalysisResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/expenses/analysis/{expenseType} [get]
func (h *ExpenseHandler) Analysis(c *fiber.Ctx) error {
	analysis, err := h.expenseService.AggregateByCategory(c.UserContext(), middleware.IdentityFrom(c), c.Params("expenseType"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.AnalysisResponse{
		Success:  true,
		Analysis: analysis,
		Message:  "Analysis fetched successfully",
	})
}

// Summary godoc
// @Summary Totals per tracker type
// @Tags expenses
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SummaryResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/expenses/summary [get]
func (h *ExpenseHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.expenseService.Summary(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.SummaryResponse{Success: true, Summary: summary})
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Security Bearer
// @Success 200 {object} dto.StatusResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *fiber.Ctx) error {
	if err := h.expenseService.Delete(c.UserContext(), middleware.IdentityFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.StatusResponse{Success: true, Message: "Expense deleted successfully"})
}
