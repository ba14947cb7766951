package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jirawatp/anon-message-api/internal/auth"
	"github.com/jirawatp/anon-message-api/internal/model"
)

// Identity is the resolved caller identity attached to the request context by
// the auth middleware.
type Identity struct {
	UserID    string
	Username  string
	SessionID string
}

type identityKey struct{}

// SessionChecker verifies that a session is still live. Sign-out deletes the
// session document, so a structurally valid token can still be revoked.
type SessionChecker interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
}

// IdentityFrom extracts the authenticated identity from the request context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Exported for tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// NewAuthMiddleware returns middleware that resolves a bearer access token to
// an authenticated identity, rejecting the request with 401 before any
// downstream storage access when resolution fails.
func NewAuthMiddleware(jwtAuth auth.JWTAuthenticator, secret string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				unauthenticated(w)
				return
			}

			var claims auth.SessionClaims
			if _, err := jwtAuth.ValidateTokenWithClaims(tokenString, secret, &claims); err != nil {
				unauthenticated(w)
				return
			}

			session, err := sessions.GetSession(r.Context(), claims.SessionID)
			if err != nil || session.AccessToken != tokenString {
				unauthenticated(w)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID:    claims.UserID,
				Username:  claims.Username,
				SessionID: claims.SessionID,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "not authenticated",
	})
}
