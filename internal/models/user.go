package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Email       string    `db:"email"`
	Password    string    `db:"password"` // bcrypt hash
	CompanyName string    `db:"company_name"`
	Industry    string    `db:"industry"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Session is an issued token that is still accepted for its user.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Token  string
}
