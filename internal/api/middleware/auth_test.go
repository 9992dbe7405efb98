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

	"vcontest/internal/common"
	"vcontest/internal/common/security"
	"vcontest/internal/domain/model"
	"vcontest/internal/platform/logger"
)

type stubResolver struct {
	sessions map[string]string
	err      error
	calls    int
}

func (s *stubResolver) ResolveSession(ctx context.Context, token string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	userID, ok := s.sessions[token]
	if !ok {
		return "", common.ErrUnauthorized
	}
	return userID, nil
}

func sealed(t *testing.T, tokens *security.SessionTokens, sid, userID string, exp time.Time) string {
	t.Helper()
	v, err := tokens.Seal(&model.Session{Token: sid, InternalUserID: userID, ExpiresAt: exp})
	require.NoError(t, err)
	return v
}

// whoami echoes the resolved identity, or "-" when there is none.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		userID = "-"
	}
	w.Write([]byte(userID))
})

func TestSessionPipeline(t *testing.T) {
	tokens := security.NewSessionTokens([]byte("secret"))
	foreign := security.NewSessionTokens([]byte("other-secret"))
	resolver := &stubResolver{sessions: map[string]string{"sid-1": "0"}}
	future := time.Now().Add(time.Hour)

	h := SessionPipeline(tokens, "token", resolver, logger.Discard(), []string{"/health"})(whoami)

	tests := []struct {
		name   string
		path   string
		cookie string
		want   string
	}{
		{"valid session", "/x", sealed(t, tokens, "sid-1", "0", future), "0"},
		{"no cookie", "/x", "", "-"},
		{"garbage cookie", "/x", "not-a-jwt", "-"},
		{"foreign signing key", "/x", sealed(t, foreign, "sid-1", "0", future), "-"},
		{"expired cookie", "/x", sealed(t, tokens, "sid-1", "0", time.Now().Add(-time.Minute)), "-"},
		{"revoked session", "/x", sealed(t, tokens, "sid-2", "0", future), "-"},
		{"subject mismatch", "/x", sealed(t, tokens, "sid-1", "9", future), "-"},
		{"missing subject", "/x", sealed(t, tokens, "sid-1", "", future), "-"},
		{"bypassed path", "/health", sealed(t, tokens, "sid-1", "0", future), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestSessionPipeline_StoreFailureContinuesUnauthenticated(t *testing.T) {
	tokens := security.NewSessionTokens([]byte("secret"))
	resolver := &stubResolver{err: errors.New("connection refused")}
	h := SessionPipeline(tokens, "token", resolver, logger.Discard(), nil)(whoami)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: sealed(t, tokens, "sid-1", "0", time.Now().Add(time.Hour))})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "-", rec.Body.String())
	assert.Equal(t, 1, resolver.calls)
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(whoami)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDCtxKey, "7"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
}
