package models

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID        uuid.UUID `db:"id"`
	UserEmail string    `db:"user_email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Messages  []Message
}

// Message is one turn of a chat. Rows are only ever inserted; Seq orders them.
type Message struct {
	ID          uuid.UUID    `db:"id"`
	ChatID      uuid.UUID    `db:"chat_id"`
	Seq         int64        `db:"seq"`
	Text        string       `db:"text"`
	IsUser      bool         `db:"is_user"`
	Model       string       `db:"model"`
	Attachments []Attachment `db:"attachments"`
	Timestamp   time.Time    `db:"created_at"`
}

// Attachment is stored as JSONB alongside its message.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}
