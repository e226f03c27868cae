package repository

import (
	"context"
	"fmt"

	"cost-sage/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

var messageColumns = []string{"id", "chat_id", "seq", "text", "is_user", "model", "attachments", "created_at"}

type ChatRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChatRepository(db *pgxpool.Pool, logger *zap.Logger) *ChatRepository {
	return &ChatRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new chat together with its first message.
func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat, first *models.Message) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := psql.Insert("chats").
			Columns("id", "user_email", "created_at", "updated_at").
			Values(chat.ID, chat.UserEmail, chat.CreatedAt, chat.UpdatedAt).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return mapError(err)
		}
		return insertMessage(ctx, tx, first)
	})
}

// Append adds a message to the end of the chat and bumps its updated_at.
func (r *ChatRepository) Append(ctx context.Context, msg *models.Message) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := psql.Update("chats").
			Set("updated_at", msg.Timestamp).
			Where(squirrel.Eq{"id": msg.ChatID}).
			ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return insertMessage(ctx, tx, msg)
	})
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg *models.Message) error {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	sql, args, err := psql.Insert("chat_messages").
		Columns("id", "chat_id", "text", "is_user", "model", "attachments", "created_at").
		Values(msg.ID, msg.ChatID, msg.Text, msg.IsUser, msg.Model, attachments, msg.Timestamp).
		Suffix("RETURNING seq").
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, sql, args...).Scan(&msg.Seq); err != nil {
		return fmt.Errorf("insert message: %w", mapError(err))
	}
	return nil
}

func (r *ChatRepository) OwnerEmail(ctx context.Context, chatID uuid.UUID) (string, error) {
	sql, args, err := psql.Select("user_email").
		From("chats").
		Where(squirrel.Eq{"id": chatID}).
		ToSql()
	if err != nil {
		return "", err
	}

	var email string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&email); err != nil {
		return "", mapError(err)
	}
	return email, nil
}

// GetByID loads one chat with its messages in insertion order.
func (r *ChatRepository) GetByID(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	chats, err := r.listChats(ctx, squirrel.Eq{"id": chatID})
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, ErrNotFound
	}
	return chats[0], nil
}

// ListByUser returns the user's chats, most recently updated first.
func (r *ChatRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Chat, error) {
	return r.listChats(ctx, squirrel.Eq{"user_email": userEmail})
}

func (r *ChatRepository) Delete(ctx context.Context, chatID uuid.UUID) error {
	sql, args, err := psql.Delete("chats").
		Where(squirrel.Eq{"id": chatID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChatRepository) listChats(ctx context.Context, where squirrel.Eq) ([]*models.Chat, error) {
	sql, args, err := psql.Select("id", "user_email", "created_at", "updated_at").
		From("chats").
		Where(where).
		OrderBy("updated_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]*models.Chat, 0)
	byID := make(map[uuid.UUID]*models.Chat)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Messages = make([]models.Message, 0)
		chats = append(chats, &c)
		byID[c.ID] = &c
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return chats, nil
	}

	msgSQL, msgArgs, err := psql.Select(messageColumns...).
		From("chat_messages").
		Where(squirrel.Eq{"chat_id": ids}).
		OrderBy("chat_id", "seq").
		ToSql()
	if err != nil {
		return nil, err
	}

	msgRows, err := r.db.Query(ctx, msgSQL, msgArgs...)
	if err != nil {
		return nil, err
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var m models.Message
		if err := msgRows.Scan(&m.ID, &m.ChatID, &m.Seq, &m.Text, &m.IsUser, &m.Model, &m.Attachments, &m.Timestamp); err != nil {
			return nil, err
		}
		if m.Attachments == nil {
			m.Attachments = []models.Attachment{}
		}
		if c, ok := byID[m.ChatID]; ok {
			c.Messages = append(c.Messages, m)
		}
	}

	return chats, msgRows.Err()
}
