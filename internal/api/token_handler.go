package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenlabs/lumen-api/internal/api/shared"
	"github.com/lumenlabs/lumen-api/internal/service"
)

// TokenHandler serves the API token management endpoints.
type TokenHandler struct {
	tokens *service.TokenService
}

// NewTokenHandler creates a TokenHandler.
func NewTokenHandler(tokens *service.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// storeTokenRequest is the body of POST /api/tokens.
type storeTokenRequest struct {
	Provider string `json:"provider"`
	Value    string `json:"value"`
}

// Store handles POST /api/tokens.
func (h *TokenHandler) Store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req storeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Value == "" {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "token value is required")
		return
	}

	token, err := h.tokens.StoreToken(ctx, userID, req.Provider, req.Value)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusCreated, token)
}

// List handles GET /api/tokens. Token values are never included.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	tokens, err := h.tokens.ListTokens(ctx, userID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, tokens)
}

// Delete handles DELETE /api/tokens/{id}.
func (h *TokenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		shared.RespondWithError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}
	tokenID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(ctx, w, http.StatusBadRequest, "invalid token id")
		return
	}

	deleted, err := h.tokens.DeleteToken(ctx, userID, tokenID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}
	shared.RespondWithJSON(ctx, w, http.StatusOK, map[string]bool{"deleted": deleted})
}
