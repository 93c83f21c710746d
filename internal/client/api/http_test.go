package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
)

func authOK(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(AuthResult{
			UserID:    "u-1",
			Email:     "user@example.com",
			Token:     "tok-123",
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
		})
	}
}

func TestHTTPClient_SignIn_Success_RemembersToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", authOK(t))
	mux.HandleFunc("GET /api/auth/verification", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(common.AuthHeaderName)
		_ = json.NewEncoder(w).Encode(map[string]bool{"email_verified": true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)
	res, err := c.SignIn(context.Background(), "user@example.com", []byte("password123"), true)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", res.Email)
	assert.Equal(t, "tok-123", res.Token)

	verified, err := c.VerificationStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, verified)
	assert.Equal(t, common.AuthSchemePrefix+"tok-123", gotAuth)
}

func TestHTTPClient_SignIn_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.SignIn(context.Background(), "user@example.com", []byte("wrongpass"), false)
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestHTTPClient_SignUp_EmailTaken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.SignUp(context.Background(), "user@example.com", []byte("password123"))
	require.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestHTTPClient_ServerError_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.SignIn(context.Background(), "user@example.com", []byte("password123"), false)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_Timeout_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, 20*time.Millisecond)
	_, err := c.SignIn(context.Background(), "user@example.com", []byte("password123"), false)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_ConnectionRefused_IsUnavailable(t *testing.T) {
	// point at a closed server
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_RequestPasswordReset_AlwaysAccepted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)

	// same unregistered email twice: same success-shaped result both times
	require.NoError(t, c.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.NoError(t, c.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Equal(t, 2, calls)
}

func TestHTTPClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, c.Ping(context.Background()))
}

func TestHTTPClient_Projects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Project{{ID: "p-1", Name: "Ashes of Eldra", Genre: "epic"}})
	})
	mux.HandleFunc("POST /api/projects", func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Project{ID: "p-2", Name: req.Name, Genre: req.Genre})
	})
	mux.HandleFunc("DELETE /api/projects/p-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, time.Second)

	list, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ashes of Eldra", list[0].Name)

	created, err := c.CreateProject(context.Background(), "Tidebound", "nautical")
	require.NoError(t, err)
	assert.Equal(t, "Tidebound", created.Name)

	require.NoError(t, c.DeleteProject(context.Background(), "p-1"))
}
