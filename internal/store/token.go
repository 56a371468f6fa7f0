package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/lumenlabs/lumen-api/internal/domain"
)

// TokenStore defines the persistence interface for encrypted API tokens.
type TokenStore interface {
	// Create persists a new token. Returns ErrTokenExists if the user
	// already has a token for the same provider.
	Create(ctx context.Context, token *domain.APIToken) error

	// GetByUserAndProvider retrieves the token a user stored for the given
	// provider. Returns ErrTokenNotFound if none exists.
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*domain.APIToken, error)

	// ListByUser retrieves all tokens stored by the given user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error)

	// Delete removes a token owned by userID. Returns true if a row was
	// deleted, false if the token does not exist or is owned by someone else.
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)
}
