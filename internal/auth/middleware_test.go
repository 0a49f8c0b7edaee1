package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/internal/httputil"
)

func TestRequireAuthPutsActorInContext(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "alice", time.Minute)
	require.NoError(t, err)

	var gotID uuid.UUID
	var gotUsername string
	handler := NewMiddleware(svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ActorID(r.Context())
		require.True(t, ok)
		gotID = id

		username, ok := httputil.ActorUsername(r.Context())
		require.True(t, ok)
		gotUsername = username
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "alice", gotUsername)
}

func TestRequireAuthRejectsBadRequests(t *testing.T) {
	svc, err := NewPasetoService(testKey)
	require.NoError(t, err)

	expired, err := svc.CreateToken(uuid.New(), "alice", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"expired token", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewMiddleware(svc).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
