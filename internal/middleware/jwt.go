package myMiddleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// NicknameKey carries the authenticated nickname through the request context.
const NicknameKey contextKey = "nickname"

// Authenticator resolves a bearer token to a known user's nickname. This
// interface decouples 'middleware' from 'user'.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(a Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = parts[1]
			}
		}

		// Browsers cannot set headers on the websocket handshake, so the
		// token may arrive as a query param instead.
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		nickname, err := am.auth.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), NicknameKey, nickname)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
