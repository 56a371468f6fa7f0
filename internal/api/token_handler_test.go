package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/lumen-api/internal/domain"
	"github.com/lumenlabs/lumen-api/internal/store"
)

// memTokenStore is a minimal in-memory store.TokenStore for handler tests.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*domain.APIToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[uuid.UUID]*domain.APIToken)}
}

func (m *memTokenStore) Create(_ context.Context, t *domain.APIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tokens {
		if existing.UserID == t.UserID && existing.Provider == t.Provider {
			return store.ErrTokenExists
		}
	}
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokenStore) GetByUserAndProvider(_ context.Context, userID uuid.UUID, provider string) (*domain.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID && t.Provider == provider {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrTokenNotFound
}

func (m *memTokenStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.APIToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.APIToken, 0)
	for _, t := range m.tokens {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTokenStore) Delete(_ context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok && t.UserID == userID {
		delete(m.tokens, id)
		return true, nil
	}
	return false, nil
}

func TestStoreTokenEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	body := bytes.NewBufferString(`{"provider":"openai","value":"sk-test"}`)
	resp := ts.request(t, http.MethodPost, "/api/tokens", body, user, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.APIToken
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "openai", created.Provider)

	// The encrypted value must never appear in API output.
	resp = ts.request(t, http.MethodGet, "/api/tokens", nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	resp.Body.Close()
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "value")
	assert.NotContains(t, raw[0], "Value")
}

func TestStoreTokenDuplicateEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	body := bytes.NewBufferString(`{"provider":"gemini","value":"k1"}`)
	resp := ts.request(t, http.MethodPost, "/api/tokens", body, user, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	body = bytes.NewBufferString(`{"provider":"gemini","value":"k2"}`)
	resp = ts.request(t, http.MethodPost, "/api/tokens", body, user, "application/json")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStoreTokenUnknownProvider(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	body := bytes.NewBufferString(`{"provider":"mystery","value":"k"}`)
	resp := ts.request(t, http.MethodPost, "/api/tokens", body, uuid.New(), "application/json")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteTokenEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	user := uuid.New()

	body := bytes.NewBufferString(`{"provider":"openai","value":"sk"}`)
	resp := ts.request(t, http.MethodPost, "/api/tokens", body, user, "application/json")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.APIToken
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	resp = ts.request(t, http.MethodDelete, "/api/tokens/"+created.ID.String(), nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.True(t, out["deleted"])

	// Idempotent second delete.
	resp = ts.request(t, http.MethodDelete, "/api/tokens/"+created.ID.String(), nil, user, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.False(t, out["deleted"])
}
