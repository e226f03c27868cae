package handlers

import (
	"cost-sage/internal/dto"
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create an account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login godoc
// @Summary Login user
// @Description Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(resp)
}

// Logout godoc
// @Summary Logout user
// @Description Invalidate the presented session token
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.IdentityFrom(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.StatusResponse{Success: true, Message: "Logged out successfully"})
}

// AuthStatus godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.AuthStatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth-status [get]
func (h *AuthHandler) AuthStatus(c *fiber.Ctx) error {
	resp, err := h.authService.Status(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(resp)
}
