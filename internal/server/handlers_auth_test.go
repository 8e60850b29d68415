package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dog-face/snake-game-be/internal/auth"
	"github.com/dog-face/snake-game-be/internal/domain"
)

func TestHandleSignup_Success(t *testing.T) {
	userID := uuid.New()
	users := notFoundUsers()
	users.createFn = func(_ context.Context, email, username, passwordHash string) (*domain.User, error) {
		assert.Equal(t, "alice@example.com", email)
		assert.Equal(t, "alice", username)
		assert.True(t, auth.CheckPassword("password123", passwordHash), "stored hash matches the password")
		return &domain.User{ID: userID, Email: email, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}, nil
	}
	srv := newTestServer(t, withUsers(users))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"alice@example.com","username":"alice","password":"password123"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userID.String(), resp.User["id"])
	assert.Equal(t, "alice", resp.User["username"])
	assert.NotEmpty(t, resp.Token)

	// The returned token authenticates the new user.
	verified, err := srv.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified)
}

func TestHandleSignup_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing at sign in email", `{"email":"nope","username":"alice","password":"password123"}`},
		{"username too short", `{"email":"a@b.com","username":"al","password":"password123"}`},
		{"username too long", `{"email":"a@b.com","username":"abcdefghijklmnopqrstu","password":"password123"}`},
		{"username with invalid characters", `{"email":"a@b.com","username":"al ice!","password":"password123"}`},
		{"password too short", `{"email":"a@b.com","username":"alice","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/v1/auth/signup", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleSignup_EmailConflict(t *testing.T) {
	users := notFoundUsers()
	users.getByEmailFn = func(context.Context, string) (*domain.User, error) {
		return testUser(uuid.New()), nil
	}
	srv := newTestServer(t, withUsers(users))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"alice@example.com","username":"alice","password":"password123"}`, "")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already registered")
}

func TestHandleSignup_UsernameConflict(t *testing.T) {
	users := notFoundUsers()
	users.getByUsernameFn = func(context.Context, string) (*domain.User, error) {
		return testUser(uuid.New()), nil
	}
	srv := newTestServer(t, withUsers(users))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"alice@example.com","username":"alice","password":"password123"}`, "")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already taken")
}

func TestHandleLogin_Success(t *testing.T) {
	userID := uuid.New()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	srv := newTestServer(t, withUsers(&mockUserRepo{
		getByUsernameFn: func(_ context.Context, username string) (*domain.User, error) {
			assert.Equal(t, "alice", username)
			user := testUser(userID)
			user.PasswordHash = hash
			return user, nil
		},
	}))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"password123"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	verified, err := srv.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, verified)
}

func TestHandleLogin_UnknownUser(t *testing.T) {
	srv := newTestServer(t, withUsers(&mockUserRepo{
		getByUsernameFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/login",
		`{"username":"ghost","password":"password123"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)

	srv := newTestServer(t, withUsers(&mockUserRepo{
		getByUsernameFn: func(context.Context, string) (*domain.User, error) {
			user := testUser(uuid.New())
			user.PasswordHash = hash
			return user, nil
		},
	}))

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"wrong-password"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong scheme
	req := doRequest(srv, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, req.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/auth/me", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe_ReturnsUser(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t, withUsers(&mockUserRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			assert.Equal(t, userID, id)
			return testUser(userID), nil
		},
	}))

	rec := doRequest(srv, http.MethodGet, "/api/v1/auth/me", "", issueToken(t, srv, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, userID.String(), resp["id"])
	assert.Equal(t, "alice", resp["username"])
}

func TestHandleMe_ExpiredToken(t *testing.T) {
	srv := newTestServer(t)

	// Issue with a token service whose clock sits far in the past.
	expired := newExpiredToken(t, uuid.New())
	rec := doRequest(srv, http.MethodGet, "/api/v1/auth/me", "", expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	rec := doRequest(srv, http.MethodPost, "/api/v1/auth/logout", "", issueToken(t, srv, userID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out successfully")

	rec = doRequest(srv, http.MethodPost, "/api/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
