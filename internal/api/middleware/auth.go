// Package middleware holds the HTTP middleware for the API: bearer token
// authentication and request logging.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lumenlabs/lumen-api/internal/api/shared"
	"github.com/lumenlabs/lumen-api/internal/service/auth"
)

// TokenValidator is the slice of the auth service this middleware needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Authenticate verifies the Authorization bearer token and stores the user
// ID in the request context. Requests without a valid token get 401.
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" {
				shared.RespondWithError(ctx, w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				shared.RespondWithError(ctx, w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					shared.RespondWithError(ctx, w, http.StatusUnauthorized, "token expired")
					return
				}
				shared.RespondWithError(ctx, w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(shared.WithUserID(ctx, claims.UserID)))
		})
	}
}
