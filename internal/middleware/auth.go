package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CarlosNatanauan/listly/internal/apperr"
	"github.com/CarlosNatanauan/listly/internal/auth"
	"github.com/CarlosNatanauan/listly/internal/model"
)

// TokenValidator resolves a session token to its account.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*model.Account, error)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when there is none.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth validates the bearer token and populates AuthContext. A missing
// token is 401; a token that does not verify or predates the last password
// change is 403.
func RequireAuth(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := tokens.Validate(r.Context(), BearerToken(r))
			if err != nil {
				status := apperr.Status(err)
				if status == http.StatusInternalServerError {
					logger.ErrorContext(r.Context(), "validate token", "error", err)
				}
				writeError(w, status, http.StatusText(status))
				return
			}

			ac := auth.AuthContext{
				AccountID: account.ID,
				Username:  account.Username,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey guards developer-only routes with a static bearer key. An
// empty key disables the routes entirely.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := BearerToken(r)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusForbidden, "Unauthorized access")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
