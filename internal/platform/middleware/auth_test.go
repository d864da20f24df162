package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	signer := NewHS256("test-key", "trailview")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotSubject string
	handler := RequireAuth(signer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token passes subject through", func(t *testing.T) {
		token, err := signer.Issue("analyst", "events:read", time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "analyst", gotSubject)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := serve("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing or invalid Authorization header")
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := signer.Issue("analyst", "", -time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		token, err := NewHS256("other-key", "trailview").Issue("analyst", "", time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token from another issuer is rejected", func(t *testing.T) {
		token, err := NewHS256("test-key", "someone-else").Issue("analyst", "", time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
