package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-user-service/internal/model"
)

type stubAuthenticator struct {
	user   model.User
	err    error
	tokens []string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (model.User, error) {
	s.tokens = append(s.tokens, token)
	return s.user, s.err
}

// recordError stands in for the handler error writer.
func recordError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden), errors.Is(err, model.ErrInvalidToken):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrInactive):
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	if user, ok := UserFromContext(r.Context()); ok {
		w.Header().Set("X-User", user.Email)
	}
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		authn      *stubAuthenticator
		wantStatus int
		wantToken  string
	}{
		{name: "missing header", header: "", authn: &stubAuthenticator{}, wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic abc", authn: &stubAuthenticator{}, wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer   ", authn: &stubAuthenticator{}, wantStatus: http.StatusUnauthorized},
		{
			name:       "rejected token",
			header:     "Bearer bad",
			authn:      &stubAuthenticator{err: model.ErrInvalidToken},
			wantStatus: http.StatusForbidden,
			wantToken:  "bad",
		},
		{
			name:       "accepted token any case scheme",
			header:     "bearer good",
			authn:      &stubAuthenticator{user: model.User{ID: 1, Email: "a@x.com", IsActive: true}},
			wantStatus: http.StatusOK,
			wantToken:  "good",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(tt.authn, recordError)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.RequireAuth(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantToken == "" {
				assert.Empty(t, tt.authn.tokens)
			} else {
				assert.Equal(t, []string{tt.wantToken}, tt.authn.tokens)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "a@x.com", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRequireActiveAndSuperuser(t *testing.T) {
	m := NewAuthMiddleware(&stubAuthenticator{}, recordError)
	chain := m.RequireActive(m.RequireSuperuser(http.HandlerFunc(okHandler)))

	tests := []struct {
		name       string
		user       *model.User
		wantStatus int
	}{
		{name: "no user in context", wantStatus: http.StatusUnauthorized},
		{name: "inactive", user: &model.User{ID: 1, IsSuperuser: true}, wantStatus: http.StatusBadRequest},
		{name: "active normal user", user: &model.User{ID: 1, IsActive: true}, wantStatus: http.StatusForbidden},
		{name: "active superuser", user: &model.User{ID: 1, IsActive: true, IsSuperuser: true}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLoggingSetsHeaders(t *testing.T) {
	var seenID string
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
		assert.Equal(t, rec.Header().Get(requestIDHeader), seenID)
		assert.NotEmpty(t, rec.Header().Get(processTimeHeader))
	})

	t.Run("propagates request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
		assert.Equal(t, "abc-123", seenID)
	})
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestTimeout(t *testing.T) {
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQUEST_TIMEOUT")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
