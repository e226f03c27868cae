package dto

// Attachments arrive loosely typed and are sanitized by the chat service.
type NewChatRequest struct {
	UserEmail      string           `json:"userEmail"`
	InitialMessage string           `json:"initialMessage"`
	Model          string           `json:"model"`
	Attachments    []map[string]any `json:"attachments"`
}

type AppendMessageRequest struct {
	Message     string           `json:"message"`
	IsUser      bool             `json:"isUser"`
	Model       string           `json:"model"`
	Attachments []map[string]any `json:"attachments"`
}

type ChatIDResponse struct {
	Success bool   `json:"success"`
	ChatID  string `json:"chatId"`
}

type AttachmentResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type MessageResponse struct {
	ID          string               `json:"_id"`
	Text        string               `json:"text"`
	IsUser      bool                 `json:"isUser"`
	Model       string               `json:"model"`
	Timestamp   string               `json:"timestamp"`
	Attachments []AttachmentResponse `json:"attachments"`
}

type ChatResponse struct {
	ID        string            `json:"_id"`
	UserEmail string            `json:"userEmail"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

type CompletionMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type CompletionRequest struct {
	Messages []CompletionMessage `json:"messages" validate:"required,min=1,dive"`
	Model    string              `json:"model"`
}

type ReplyRequest struct {
	Model string `json:"model"`
}
