package handlers

import (
	"cost-sage/internal/dto"
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ListChats godoc
// @Summary List the caller's chats
// @Description Most recently updated first, each with its messages in order
// @Tags chats
// @Produce json
// @Param userEmail path string true "Caller's email"
// @Security Bearer
// @Success 200 {array} dto.ChatResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/chats/{userEmail} [get]
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	chats, err := h.chatService.ListChats(c.UserContext(), middleware.IdentityFrom(c), c.Params("userEmail"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(chats)
}

// NewChat godoc
// @Summary Start a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param request body dto.NewChatRequest true "First message"
// @Security Bearer
// @Success 201 {object} dto.ChatIDResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/chats/new [post]
func (h *ChatHandler) NewChat(c *fiber.Ctx) error {
	var req dto.NewChatRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	chatID, err := h.chatService.CreateChat(c.UserContext(), middleware.IdentityFrom(c), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ChatIDResponse{Success: true, ChatID: chatID})
}

// AppendMessage godoc
// @Summary Append a message to a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param request body dto.AppendMessageRequest true "Message"
// @Security Bearer
// @Success 200 {object} dto.ChatIDResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{chatId}/messages [post]
func (h *ChatHandler) AppendMessage(c *fiber.Ctx) error {
	var req dto.AppendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	chatID, err := h.chatService.AppendMessage(c.UserContext(), middleware.IdentityFrom(c), c.Params("chatId"), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.ChatIDResponse{Success: true, ChatID: chatID})
}

// Reply godoc
// @Summary Generate the assistant's next turn
// @Description Completes the stored conversation and appends the answer to it
// @Tags chats
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param request body dto.ReplyRequest false "Model override"
// @Security Bearer
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/chats/{chatId}/reply [post]
func (h *ChatHandler) Reply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	msg, err := h.chatService.Reply(c.UserContext(), middleware.IdentityFrom(c), c.Params("chatId"), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(msg)
}

// DeleteChat godoc
// @Summary Delete a chat
// @Tags chats
// @Produce json
// @Param chatId path string true "Chat ID"
// @Security Bearer
// @Success 200 {object} dto.StatusResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{chatId} [delete]
func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	if err := h.chatService.DeleteChat(c.UserContext(), middleware.IdentityFrom(c), c.Params("chatId")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(dto.StatusResponse{Success: true})
}

// Complete godoc
// @Summary Chat completion
// @Description Forwards a role-tagged history to the AI model and returns its reply
// @Tags chats
// @Accept json
// @Produce json
// @Param request body dto.CompletionRequest true "Conversation"
// @Security Bearer
// @Success 200 {object} dto.CompletionMessage
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/chat [post]
func (h *ChatHandler) Complete(c *fiber.Ctx) error {
	var req dto.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	msg, err := h.chatService.Complete(c.UserContext(), &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(msg)
}
