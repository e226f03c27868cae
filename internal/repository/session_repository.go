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

type SessionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSessionRepository(db *pgxpool.Pool, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Store records a freshly issued session. The owning user row is locked for
// the duration of the transaction so concurrent logins for one user apply one
// after the other. With exclusive set, every other session of the user is
// removed first, leaving the new token as the only valid one.
func (r *SessionRepository) Store(ctx context.Context, session *models.Session, exclusive bool) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		lockSQL, lockArgs, err := psql.Select("id").
			From("users").
			Where(squirrel.Eq{"id": session.UserID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return err
		}
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, lockSQL, lockArgs...).Scan(&locked); err != nil {
			return mapError(err)
		}

		del := psql.Delete("sessions").Where(squirrel.Eq{"user_id": session.UserID})
		if !exclusive {
			del = del.Where(squirrel.LtOrEq{"expires_at": session.CreatedAt})
		}
		delSQL, delArgs, err := del.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, delSQL, delArgs...); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}

		insSQL, insArgs, err := psql.Insert("sessions").
			Columns("id", "user_id", "token", "created_at", "expires_at").
			Values(session.ID, session.UserID, session.Token, session.CreatedAt, session.ExpiresAt).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, insSQL, insArgs...)
		return mapError(err)
	})
}

// Exists reports whether token is a live session of the user.
func (r *SessionRepository) Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	sql, args, err := psql.Select("1").
		From("sessions").
		Where(squirrel.Eq{"user_id": userID, "token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if mapError(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	sql, args, err := psql.Delete("sessions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, userID uuid.UUID, token string) error {
	sql, args, err := psql.Delete("sessions").
		Where(squirrel.Eq{"user_id": userID, "token": token}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
