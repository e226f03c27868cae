package handlers

import (
	"cost-sage/internal/dto"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InsightHandler struct {
	insightService InsightService
	logger         *zap.Logger
}

func NewInsightHandler(insightService InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// GenerateInsights godoc
// @Summary Generate spending insights
// @Description Asks the AI model for up to five insights about parallel category and amount lists
// @Tags insights
// @Accept json
// @Produce json
// @Param request body dto.InsightRequest true "Categories and amounts"
// @Security Bearer
// @Success 200 {object} dto.InsightResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/insights [post]
func (h *InsightHandler) GenerateInsights(c *fiber.Ctx) error {
	var req dto.InsightRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request data")
	}

	insights, err := h.insightService.Generate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.InsightResponse{Success: true, Insights: insights})
}
