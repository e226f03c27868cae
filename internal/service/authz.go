package service

import (
	"context"
	"errors"
	"strings"

	"cost-sage/internal/models"
	"cost-sage/internal/repository"

	"github.com/google/uuid"
)

// OwnerLookup resolves the email owning an entity, or repository.ErrNotFound.
type OwnerLookup func(ctx context.Context, id uuid.UUID) (string, error)

// Authorize is the single ownership gate for expenses and chats.
func Authorize(ctx context.Context, lookup OwnerLookup, id uuid.UUID, identity *models.Identity) error {
	if identity == nil {
		return ErrForbidden
	}
	owner, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return AuthorizeEmail(owner, identity)
}

// AuthorizeEmail checks a known owner email against the caller.
func AuthorizeEmail(owner string, identity *models.Identity) error {
	if identity == nil || !strings.EqualFold(owner, identity.Email) {
		return ErrForbidden
	}
	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ValidationError{Message: "Invalid " + field, Fields: map[string]string{field: "uuid"}}
	}
	return id, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
