package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for APIToken
var (
	ErrEmptyTokenUserID   = errors.New("token user ID cannot be empty")
	ErrEmptyTokenProvider = errors.New("token provider cannot be empty")
	ErrEmptyTokenValue    = errors.New("token value cannot be empty")
)

// APIToken holds one user-supplied AI provider credential. The token value
// is stored encrypted; the plaintext exists only transiently in memory.
type APIToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Provider  string    `json:"provider"`
	Value     string    `json:"-"` // ciphertext, never serialized
	CreatedAt time.Time `json:"created_at"`
}

// NewAPIToken creates a new APIToken for the given user and provider.
// The value must already be encrypted by the caller.
func NewAPIToken(userID uuid.UUID, provider, encryptedValue string) (*APIToken, error) {
	t := &APIToken{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  provider,
		Value:     encryptedValue,
		CreatedAt: time.Now().UTC(),
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the APIToken has valid data.
func (t *APIToken) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrEmptyTokenUserID
	}
	if t.Provider == "" {
		return ErrEmptyTokenProvider
	}
	if t.Value == "" {
		return ErrEmptyTokenValue
	}
	return nil
}
