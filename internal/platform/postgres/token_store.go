package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// Compile-time check that PostgresTokenStore implements store.TokenStore.
var _ store.TokenStore = (*PostgresTokenStore)(nil)

// PostgresTokenStore implements store.TokenStore using PostgreSQL.
// Token values are stored as ciphertext; encryption happens above this layer.
type PostgresTokenStore struct {
	db store.DBTX
}

// NewPostgresTokenStore creates a token store backed by the given database handle.
func NewPostgresTokenStore(db store.DBTX) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

// Create persists a new encrypted token.
func (s *PostgresTokenStore) Create(ctx context.Context, token *domain.APIToken) error {
	log := logger.FromContext(ctx)

	if err := token.Validate(); err != nil {
		return store.NewStoreError("api_token", "create", "invalid token", err)
	}

	query := `
		INSERT INTO api_tokens (id, user_id, provider, token_value, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Provider, token.Value, token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "api_tokens_user_provider_key") {
			return store.ErrTokenExists
		}
		log.Error("failed to insert api token", "error", err, "provider", token.Provider)
		return store.NewStoreError("api_token", "create", "database error", err)
	}
	return nil
}

// GetByUserAndProvider retrieves the token a user stored for a provider.
func (s *PostgresTokenStore) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*domain.APIToken, error) {
	query := `SELECT id, user_id, provider, token_value, created_at
		FROM api_tokens
		WHERE user_id = $1 AND provider = $2`

	var token domain.APIToken
	err := s.db.QueryRowContext(ctx, query, userID, provider).Scan(
		&token.ID, &token.UserID, &token.Provider, &token.Value, &token.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrTokenNotFound
		}
		return nil, store.NewStoreError("api_token", "get", "database error", err)
	}
	return &token, nil
}

// ListByUser retrieves all tokens stored by the given user.
func (s *PostgresTokenStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	query := `SELECT id, user_id, provider, token_value, created_at
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, store.NewStoreError("api_token", "list", "database error", err)
	}
	defer rows.Close()

	tokens := make([]*domain.APIToken, 0)
	for rows.Next() {
		var token domain.APIToken
		if err := rows.Scan(&token.ID, &token.UserID, &token.Provider, &token.Value, &token.CreatedAt); err != nil {
			return nil, store.NewStoreError("api_token", "list", "scan error", err)
		}
		tokens = append(tokens, &token)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("api_token", "list", "row iteration error", err)
	}
	return tokens, nil
}

// Delete removes a token owned by userID and reports whether a row was removed.
func (s *PostgresTokenStore) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM api_tokens WHERE id = $1 AND user_id = $2`

	res, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, store.NewStoreError("api_token", "delete", "database error", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("api_token", "delete", "rows affected error", err)
	}
	return n > 0, nil
}
