package server

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dog-face/snake-game-be/internal/auth"
	"github.com/dog-face/snake-game-be/internal/config"
	"github.com/dog-face/snake-game-be/internal/domain"
	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

// --- Mock implementations ---

type mockWatchService struct {
	startFn  func(ctx context.Context, ownerID uuid.UUID, username string, mode domain.GameMode) (domain.Session, error)
	updateFn func(ctx context.Context, sessionID, callerID uuid.UUID, state domain.GameState) (domain.Session, error)
	endFn    func(ctx context.Context, sessionID, callerID uuid.UUID, finalScore int, mode domain.GameMode) (domain.EndResult, error)
}

func (m *mockWatchService) Start(ctx context.Context, ownerID uuid.UUID, username string, mode domain.GameMode) (domain.Session, error) {
	if m.startFn != nil {
		return m.startFn(ctx, ownerID, username, mode)
	}
	return domain.Session{}, fmt.Errorf("not implemented")
}

func (m *mockWatchService) Update(ctx context.Context, sessionID, callerID uuid.UUID, state domain.GameState) (domain.Session, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, sessionID, callerID, state)
	}
	return domain.Session{}, fmt.Errorf("not implemented")
}

func (m *mockWatchService) End(ctx context.Context, sessionID, callerID uuid.UUID, finalScore int, mode domain.GameMode) (domain.EndResult, error) {
	if m.endFn != nil {
		return m.endFn(ctx, sessionID, callerID, finalScore, mode)
	}
	return domain.EndResult{}, fmt.Errorf("not implemented")
}

type mockUserRepo struct {
	createFn        func(ctx context.Context, email, username, passwordHash string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, email, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, username, passwordHash)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockLeaderboardStore struct {
	submitFn func(ctx context.Context, userID uuid.UUID, username string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, error)
	listFn   func(ctx context.Context, limit, offset int, mode *domain.GameMode) ([]domain.LeaderboardEntry, int, error)
}

func (m *mockLeaderboardStore) Submit(ctx context.Context, userID uuid.UUID, username string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, username, score, mode)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockLeaderboardStore) List(ctx context.Context, limit, offset int, mode *domain.GameMode) ([]domain.LeaderboardEntry, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset, mode)
	}
	return nil, 0, fmt.Errorf("not implemented")
}

type mockActiveIndex struct {
	listActiveFn          func() []domain.Session
	getByOwnerOrSessionFn func(id uuid.UUID) (domain.Session, error)
}

func (m *mockActiveIndex) ListActive() []domain.Session {
	if m.listActiveFn != nil {
		return m.listActiveFn()
	}
	return nil
}

func (m *mockActiveIndex) GetByOwnerOrSession(id uuid.UUID) (domain.Session, error) {
	if m.getByOwnerOrSessionFn != nil {
		return m.getByOwnerOrSessionFn(id)
	}
	return domain.Session{}, domain.ErrSessionNotFound
}

// --- Test helpers ---

const testSecret = "test-secret-key-32-bytes-long!!!"

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	e := echo.New()
	// Install error middleware for tests to match production behavior
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      &config.Config{Port: "8000"},
		watch:       &mockWatchService{},
		sessions:    &mockActiveIndex{},
		users:       &mockUserRepo{},
		leaderboard: &mockLeaderboardStore{},
		tokens:      auth.NewTokenService(testSecret, time.Hour, clockwork.NewRealClock()),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withWatch(watch domain.WatchService) func(*Server) {
	return func(s *Server) { s.watch = watch }
}

func withSessions(sessions activeIndex) func(*Server) {
	return func(s *Server) { s.sessions = sessions }
}

func withUsers(users domain.UserRepository) func(*Server) {
	return func(s *Server) { s.users = users }
}

func withLeaderboard(leaderboard domain.LeaderboardStore) func(*Server) {
	return func(s *Server) { s.leaderboard = leaderboard }
}

// doRequest serves one request through the full route/middleware stack.
func doRequest(srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func issueToken(t *testing.T, srv *Server, userID uuid.UUID) string {
	t.Helper()
	token, err := srv.tokens.Issue(userID)
	require.NoError(t, err)
	return token
}

// newExpiredToken issues a token from a clock two days in the past, so
// it is correctly signed but past its expiry.
func newExpiredToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	past := clockwork.NewFakeClockAt(time.Now().Add(-48 * time.Hour))
	token, err := auth.NewTokenService(testSecret, time.Hour, past).Issue(userID)
	require.NoError(t, err)
	return token
}

func testUser(id uuid.UUID) *domain.User {
	return &domain.User{
		ID:        id,
		Email:     "alice@example.com",
		Username:  "alice",
		CreatedAt: time.Now().UTC(),
	}
}

func notFoundUsers() *mockUserRepo {
	return &mockUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		getByUsernameFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
}
