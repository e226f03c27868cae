package middleware

import (
	"context"
	"errors"
	"strings"

	"cost-sage/internal/models"
	"cost-sage/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

func AuthMiddleware(authn Authenticator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))

		identity, err := authn.Authenticate(c.UserContext(), token)
		if err != nil {
			status, message := authFailure(err)
			if status == fiber.StatusInternalServerError {
				logger.Error("Authentication failed", zap.Error(err))
			} else {
				logger.Debug("Request rejected", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(status).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFrom returns the caller stored by AuthMiddleware, or nil.
func IdentityFrom(c *fiber.Ctx) *models.Identity {
	identity, _ := c.Locals(identityKey).(*models.Identity)
	return identity
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingToken):
		return fiber.StatusUnauthorized, "No token provided"
	case errors.Is(err, service.ErrSessionUserNotFound):
		return fiber.StatusUnauthorized, "User not found"
	case errors.Is(err, service.ErrStaleToken):
		return fiber.StatusUnauthorized, "Token has been invalidated. Please login again."
	case errors.Is(err, service.ErrInvalidToken):
		return fiber.StatusForbidden, "Invalid token"
	default:
		return fiber.StatusInternalServerError, "Server error"
	}
}
