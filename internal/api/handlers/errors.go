package handlers

import (
	"errors"

	"cost-sage/internal/dto"
	"cost-sage/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors to the JSON error body. Unexpected errors
// are logged and reported as a generic server error.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Success: false,
			Message: verr.Message,
			Errors:  verr.Fields,
		})
	case errors.Is(err, service.ErrUserExists):
		return fail(c, fiber.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrUserNotFound):
		return fail(c, fiber.StatusBadRequest, "User not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, fiber.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrMissingToken):
		return fail(c, fiber.StatusUnauthorized, "No token provided")
	case errors.Is(err, service.ErrSessionUserNotFound):
		return fail(c, fiber.StatusUnauthorized, "User not found")
	case errors.Is(err, service.ErrStaleToken):
		return fail(c, fiber.StatusUnauthorized, "Token has been invalidated. Please login again.")
	case errors.Is(err, service.ErrInvalidToken):
		return fail(c, fiber.StatusForbidden, "Invalid token")
	case errors.Is(err, service.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "Not authorized")
	case errors.Is(err, service.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrRequestInFlight):
		return fail(c, fiber.StatusConflict, "A request with this Idempotency-Key is still being processed")
	case errors.Is(err, service.ErrInsightGeneration):
		logger.Error("Insight generation failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to generate insights")
	case errors.Is(err, service.ErrUpstream):
		logger.Error("Completion failed", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to get a response from the AI model")
	default:
		logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Server error")
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Success: false, Message: message})
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "Invalid request body")
}
