package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/authserver/config"
	"github.com/grocerly/authserver/internal/auth"
	"github.com/grocerly/authserver/internal/services"
	"github.com/grocerly/authserver/internal/store"
	"github.com/grocerly/authserver/types"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]types.User)}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) GetByIdentifier(_ context.Context, identifier string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) Update(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func newTestRouter(secret string) *chi.Mux {
	tracker := auth.NewMemoryTracker(config.LockoutConfig{
		Threshold:     3,
		AttemptWindow: 5 * time.Minute,
		Duration:      15 * time.Minute,
	})
	service := services.NewAuthService(newFakeStore(), nil, tracker, auth.NewTokenIssuer(secret), config.AuthConfig{
		TokenTTL: time.Hour,
	})

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, service)
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router http.Handler, username, email, password string) types.User {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user types.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func loginUser(t *testing.T, router http.Handler, identifier, password string) (string, types.User) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token, resp.User
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter("test-secret")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user types.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)

	// The hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestRegisterEndpointFailures(t *testing.T) {
	router := newTestRouter("test-secret")
	registerUser(t, router, "alice", "a@x.com", "Abcdef1!")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"duplicate email", map[string]string{"username": "alice2", "email": "a@x.com", "password": "Abcdef1!"}},
		{"missing fields", map[string]string{"username": "bob"}},
		{"weak password", map[string]string{"username": "bob", "email": "b@x.com", "password": "weak"}},
		{"bad email", map[string]string{"username": "bob", "email": "nope", "password": "Abcdef1!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter("test-secret")
	created := registerUser(t, router, "alice", "a@x.com", "Abcdef1!")

	token, user := loginUser(t, router, "alice", "Abcdef1!")
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)
}

func TestLoginEndpointLockout(t *testing.T) {
	router := newTestRouter("test-secret")
	registerUser(t, router, "alice", "a@x.com", "Abcdef1!")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice",
			"password":   "Wrong1Pass!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	}

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "Abcdef1!",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account locked")
}

func TestLoginEndpointMissingFields(t *testing.T) {
	router := newTestRouter("test-secret")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpointNoSecret(t *testing.T) {
	router := newTestRouter("")
	registerUser(t, router, "alice", "a@x.com", "Abcdef1!")

	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "Abcdef1!",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetUserEndpoint(t *testing.T) {
	router := newTestRouter("test-secret")
	created := registerUser(t, router, "alice", "a@x.com", "Abcdef1!")
	other := registerUser(t, router, "bob", "b@x.com", "Abcdef1!")
	token, _ := loginUser(t, router, "alice", "Abcdef1!")

	path := fmt.Sprintf("/api/auth/user/%s", created.ID)

	t.Run("own profile", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var user types.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/auth/user/%s", other.ID), token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := auth.NewTokenIssuer("test-secret").Issue(created.ID.String(), []string{"user"}, -time.Minute)
		require.NoError(t, err)
		rec := doJSON(t, router, http.MethodGet, path, expired, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestEditUserEndpoint(t *testing.T) {
	router := newTestRouter("test-secret")
	created := registerUser(t, router, "alice", "a@x.com", "Abcdef1!")
	token, _ := loginUser(t, router, "alice", "Abcdef1!")

	path := fmt.Sprintf("/api/auth/user/%s/edit", created.ID)

	rec := doJSON(t, router, http.MethodPut, path, token, map[string]string{
		"phone": "555-0100",
		"city":  "Springfield",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user types.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "555-0100", user.Phone)
	assert.Equal(t, "Springfield", user.City)

	rec = doJSON(t, router, http.MethodPut, path, token, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, path, "", map[string]string{"phone": "555"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvatarEndpointsDisabled(t *testing.T) {
	router := newTestRouter("test-secret")
	created := registerUser(t, router, "alice", "a@x.com", "Abcdef1!")
	token, _ := loginUser(t, router, "alice", "Abcdef1!")

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/auth/user/%s/avatar", created.ID), token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInvalidUserID(t *testing.T) {
	router := newTestRouter("test-secret")
	registerUser(t, router, "alice", "a@x.com", "Abcdef1!")
	token, _ := loginUser(t, router, "alice", "Abcdef1!")

	rec := doJSON(t, router, http.MethodGet, "/api/auth/user/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
