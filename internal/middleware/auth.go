package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-user-service/internal/auth"
	"go-user-service/internal/model"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// ErrorWriter renders an error as the API error envelope.
type ErrorWriter func(w http.ResponseWriter, err error)

type contextKey string

const currentUserContextKey contextKey = "current_user"

type AuthMiddleware struct {
	authenticator Authenticator
	writeError    ErrorWriter
}

func NewAuthMiddleware(authenticator Authenticator, writeError ErrorWriter) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator, writeError: writeError}
}

// RequireAuth resolves the bearer token to a stored user and puts it in the
// request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			m.writeError(w, model.ErrUnauthorized)
			return
		}

		user, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireActive must run after RequireAuth.
func (m *AuthMiddleware) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			m.writeError(w, model.ErrUnauthorized)
			return
		}
		if err := auth.RequireActive(user); err != nil {
			m.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperuser must run after RequireActive.
func (m *AuthMiddleware) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			m.writeError(w, model.ErrUnauthorized)
			return
		}
		if err := auth.RequireSuperuser(user); err != nil {
			m.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(currentUserContextKey).(model.User)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
