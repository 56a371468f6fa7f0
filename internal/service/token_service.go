package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// ErrInvalidProvider is returned when storing a token for an unknown
// provider name.
var ErrInvalidProvider = errors.New("unknown provider")

// allowedProviders are the AI backends a user may store credentials for.
var allowedProviders = map[string]bool{
	"openai": true,
	"gemini": true,
}

// Encryptor is the slice of the secrets package the token service needs.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService manages users' AI provider API tokens. Values are encrypted
// before they reach the store and decrypted only when a background job
// needs them.
type TokenService struct {
	tokens    store.TokenStore
	encryptor Encryptor
}

// NewTokenService creates a TokenService.
func NewTokenService(tokens store.TokenStore, encryptor Encryptor) *TokenService {
	return &TokenService{tokens: tokens, encryptor: encryptor}
}

// StoreToken encrypts and saves a provider token for the user. Each user
// may hold at most one token per provider.
func (s *TokenService) StoreToken(ctx context.Context, userID uuid.UUID, provider, value string) (*domain.APIToken, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !allowedProviders[provider] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}
	if strings.TrimSpace(value) == "" {
		return nil, domain.ErrEmptyTokenValue
	}

	ciphertext, err := s.encryptor.Encrypt(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt token: %w", err)
	}

	token, err := domain.NewAPIToken(userID, provider, ciphertext)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		if errors.Is(err, store.ErrTokenExists) {
			return nil, ErrTokenExists
		}
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	logger.FromContext(ctx).Info("api token stored", "user_id", userID, "provider", provider)
	return token, nil
}

// ListTokens returns the user's stored tokens. Values stay encrypted and
// are never serialized in API responses.
func (s *TokenService) ListTokens(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	tokens, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// DeleteToken removes the user's token and reports whether anything was
// deleted.
func (s *TokenService) DeleteToken(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	deleted, err := s.tokens.Delete(ctx, tokenID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}
	return deleted, nil
}

// DecryptedToken resolves the user's token for a provider to plaintext.
// Returns ErrTokenNotFound when the user has none.
func (s *TokenService) DecryptedToken(ctx context.Context, userID uuid.UUID, provider string) (string, error) {
	token, err := s.tokens.GetByUserAndProvider(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	plaintext, err := s.encryptor.Decrypt(token.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return plaintext, nil
}
