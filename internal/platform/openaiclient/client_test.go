package openaiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "page content here", req.Messages[1].Content)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": " a summary "}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("sk-test", 5*time.Second, WithBaseURL(srv.URL))
	summary, err := client.Summarize(context.Background(), "page content here")
	require.NoError(t, err)
	assert.Equal(t, "a summary", summary)
}

func TestSummarizeEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := NewClient("sk-test", 5*time.Second, WithBaseURL(srv.URL))
	_, err := client.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSummarizeErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_api_key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("sk-bad", 5*time.Second, WithBaseURL(srv.URL))
	_, err := client.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
