package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"cost-sage/internal/dto"
	"cost-sage/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat, first *models.Message) error
	Append(ctx context.Context, msg *models.Message) error
	OwnerEmail(ctx context.Context, chatID uuid.UUID) (string, error)
	GetByID(ctx context.Context, chatID uuid.UUID) (*models.Chat, error)
	ListByUser(ctx context.Context, userEmail string) ([]*models.Chat, error)
	Delete(ctx context.Context, chatID uuid.UUID) error
}

// ChatCompleter is a Completer that also knows which models it accepts.
type ChatCompleter interface {
	Completer
	ResolveModel(requested string) string
}

type ChatService struct {
	chats  ChatStore
	llm    ChatCompleter
	logger *zap.Logger
	now    func() time.Time
}

func NewChatService(chats ChatStore, llm ChatCompleter, logger *zap.Logger) *ChatService {
	return &ChatService{
		chats:  chats,
		llm:    llm,
		logger: logger,
		now:    time.Now,
	}
}

// CreateChat starts a chat owned by the caller with a first user message.
func (s *ChatService) CreateChat(ctx context.Context, identity *models.Identity, req *dto.NewChatRequest) (string, error) {
	if email := strings.TrimSpace(req.UserEmail); email != "" {
		if err := AuthorizeEmail(email, identity); err != nil {
			return "", err
		}
	}
	text := strings.TrimSpace(req.InitialMessage)
	if text == "" {
		return "", &ValidationError{Message: "Invalid chat data", Fields: map[string]string{"initialMessage": "required"}}
	}

	now := s.now().UTC()
	chat := &models.Chat{
		ID:        uuid.New(),
		UserEmail: identity.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	first := &models.Message{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		Text:        sanitizeUTF8(text),
		IsUser:      true,
		Model:       s.llm.ResolveModel(req.Model),
		Attachments: SanitizeAttachments(req.Attachments),
		Timestamp:   now,
	}

	if err := s.chats.Create(ctx, chat, first); err != nil {
		return "", err
	}

	s.logger.Info("Chat created", zap.String("chat_id", chat.ID.String()), zap.String("user_id", identity.UserID.String()))
	return chat.ID.String(), nil
}

// AppendMessage adds a turn to a chat the caller owns.
func (s *ChatService) AppendMessage(ctx context.Context, identity *models.Identity, rawChatID string, req *dto.AppendMessageRequest) (string, error) {
	chatID, err := parseID(rawChatID, "chatId")
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return "", &ValidationError{Message: "Invalid message data", Fields: map[string]string{"message": "required"}}
	}

	if err := s.authorize(ctx, chatID, identity); err != nil {
		return "", err
	}

	msg := &models.Message{
		ID:          uuid.New(),
		ChatID:      chatID,
		Text:        sanitizeUTF8(text),
		IsUser:      req.IsUser,
		Model:       s.llm.ResolveModel(req.Model),
		Attachments: SanitizeAttachments(req.Attachments),
		Timestamp:   s.now().UTC(),
	}
	if err := s.chats.Append(ctx, msg); err != nil {
		return "", mapStoreError(err)
	}
	return chatID.String(), nil
}

// ListChats returns the caller's chats. userEmail comes from the URL and must
// be the caller's own.
func (s *ChatService) ListChats(ctx context.Context, identity *models.Identity, userEmail string) ([]dto.ChatResponse, error) {
	if err := AuthorizeEmail(userEmail, identity); err != nil {
		return nil, err
	}

	chats, err := s.chats.ListByUser(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ChatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResponse(c))
	}
	return out, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, identity *models.Identity, rawChatID string) error {
	chatID, err := parseID(rawChatID, "chatId")
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, chatID, identity); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return mapStoreError(err)
	}

	s.logger.Info("Chat deleted", zap.String("chat_id", chatID.String()))
	return nil
}

// Complete forwards a role-tagged history to the completion provider.
func (s *ChatService) Complete(ctx context.Context, req *dto.CompletionRequest) (*dto.CompletionMessage, error) {
	if err := validateStruct("Invalid completion request", req); err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}

	text, err := s.llm.Complete(ctx, req.Model, messages)
	if err != nil {
		return nil, err
	}
	return &dto.CompletionMessage{Role: RoleAssistant, Content: text}, nil
}

// Reply completes a stored chat and appends the assistant turn to it.
func (s *ChatService) Reply(ctx context.Context, identity *models.Identity, rawChatID string, req *dto.ReplyRequest) (*dto.MessageResponse, error) {
	chatID, err := parseID(rawChatID, "chatId")
	if err != nil {
		return nil, err
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := AuthorizeEmail(chat.UserEmail, identity); err != nil {
		return nil, err
	}
	if len(chat.Messages) == 0 {
		return nil, &ValidationError{Message: "Chat has no messages"}
	}

	history := make([]ChatMessage, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		role := RoleAssistant
		if m.IsUser {
			role = RoleUser
		}
		history = append(history, ChatMessage{Role: role, Content: m.Text})
	}

	model := s.llm.ResolveModel(req.Model)
	text, err := s.llm.Complete(ctx, model, history)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:          uuid.New(),
		ChatID:      chatID,
		Text:        text,
		IsUser:      false,
		Model:       model,
		Attachments: []models.Attachment{},
		Timestamp:   s.now().UTC(),
	}
	if err := s.chats.Append(ctx, msg); err != nil {
		return nil, mapStoreError(err)
	}

	resp := toMessageResponse(*msg)
	return &resp, nil
}

func (s *ChatService) authorize(ctx context.Context, chatID uuid.UUID, identity *models.Identity) error {
	err := Authorize(ctx, s.chats.OwnerEmail, chatID, identity)
	if errors.Is(err, ErrForbidden) {
		s.logger.Warn("Chat access forbidden",
			zap.String("user_id", identity.UserID.String()),
			zap.String("chat_id", chatID.String()),
		)
	}
	return err
}

// SanitizeAttachments drops entries missing a name, type or url and coerces
// size to a non-negative integer.
func SanitizeAttachments(raw []map[string]any) []models.Attachment {
	out := make([]models.Attachment, 0, len(raw))
	for _, a := range raw {
		name, _ := a["name"].(string)
		typ, _ := a["type"].(string)
		url, _ := a["url"].(string)
		name, typ, url = strings.TrimSpace(name), strings.TrimSpace(typ), strings.TrimSpace(url)
		if name == "" || typ == "" || url == "" {
			continue
		}
		out = append(out, models.Attachment{
			Name: name,
			Type: typ,
			Size: attachmentSize(a["size"]),
			URL:  url,
		})
	}
	return out
}

func attachmentSize(v any) int64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(f)
}

func toChatResponse(c *models.Chat) dto.ChatResponse {
	messages := make([]dto.MessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, toMessageResponse(m))
	}
	return dto.ChatResponse{
		ID:        c.ID.String(),
		UserEmail: c.UserEmail,
		Messages:  messages,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toMessageResponse(m models.Message) dto.MessageResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			Name: a.Name,
			Type: a.Type,
			Size: a.Size,
			URL:  a.URL,
		})
	}
	return dto.MessageResponse{
		ID:          m.ID.String(),
		Text:        m.Text,
		IsUser:      m.IsUser,
		Model:       m.Model,
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339),
		Attachments: attachments,
	}
}
