package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/classroom-service/internal/domain"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/session", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "" {
			_, _ = w.Write([]byte(`{"data":{"session":null}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"session":{"access_token":"tok","user_id":"u1","email":"a@b.c","expires_at":"2030-01-01T00:00:00Z"}}}`))
	})
	mux.HandleFunc("/profiles/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer tok":
			_, _ = w.Write([]byte(`{"data":{"id":"u1","role":"teacher","full_name":"Mr. Obi","class_level":null}}`))
		case "Bearer fresh":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"profile not found"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession(t *testing.T) {
	srv := newAPI(t)

	session, err := New(srv.URL, "", time.Second).Session(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	session, err = New(srv.URL+"/", "tok", time.Second).Session(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, 2030, session.ExpiresAt.Year())
}

func TestFetchProfile(t *testing.T) {
	srv := newAPI(t)

	profile, err := New(srv.URL, "tok", time.Second).FetchProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, domain.RoleTeacher, profile.Role)
	assert.Nil(t, profile.ClassLevel)

	profile, err = New(srv.URL, "fresh", time.Second).FetchProfile(context.Background(), "u2")
	require.NoError(t, err)
	assert.Nil(t, profile)

	_, err = New(srv.URL, "bad", time.Second).FetchProfile(context.Background(), "u3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("http://127.0.0.1:1", "tok", time.Second).Session(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
