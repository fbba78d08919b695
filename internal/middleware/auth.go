package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/leadflow/backend/internal/apperr"
)

type contextKey string

const ctxAdminKey contextKey = "admin"

// TokenValidator resolves a bearer token to the admin it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// RequireAuth rejects requests without a valid Bearer token and stores the
// authenticated admin id in the request context.
func RequireAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				apperr.WriteMessage(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}
			adminID, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				apperr.WriteMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), adminID)))
		})
	}
}

// AdminFromCtx returns the authenticated admin id, or uuid.Nil.
func AdminFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxAdminKey).(uuid.UUID)
	return id
}

// WithAdmin returns a context carrying the given admin id.
func WithAdmin(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxAdminKey, id)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
