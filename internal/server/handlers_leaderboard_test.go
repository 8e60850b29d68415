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

	"github.com/dog-face/snake-game-be/internal/domain"
)

func testEntry(score int) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Username: "alice",
		Score:    score,
		GameMode: domain.GameModeWalls,
		Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleGetLeaderboard_Defaults(t *testing.T) {
	srv := newTestServer(t, withLeaderboard(&mockLeaderboardStore{
		listFn: func(_ context.Context, limit, offset int, mode *domain.GameMode) ([]domain.LeaderboardEntry, int, error) {
			assert.Equal(t, 10, limit)
			assert.Equal(t, 0, offset)
			assert.Nil(t, mode)
			return []domain.LeaderboardEntry{testEntry(100), testEntry(50)}, 2, nil
		},
	}))

	rec := doRequest(srv, http.MethodGet, "/api/v1/leaderboard", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Entries []map[string]any `json:"entries"`
		Total   int              `json:"total"`
		Limit   int              `json:"limit"`
		Offset  int              `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 100.0, resp.Entries[0]["score"])
	assert.Equal(t, "2026-03-14", resp.Entries[0]["date"])
}

func TestHandleGetLeaderboard_QueryParams(t *testing.T) {
	srv := newTestServer(t, withLeaderboard(&mockLeaderboardStore{
		listFn: func(_ context.Context, limit, offset int, mode *domain.GameMode) ([]domain.LeaderboardEntry, int, error) {
			assert.Equal(t, 25, limit)
			assert.Equal(t, 50, offset)
			require.NotNil(t, mode)
			assert.Equal(t, domain.GameModePassThrough, *mode)
			return nil, 0, nil
		},
	}))

	rec := doRequest(srv, http.MethodGet, "/api/v1/leaderboard?limit=25&offset=50&gameMode=pass-through", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGetLeaderboard_Validation(t *testing.T) {
	srv := newTestServer(t)

	for _, query := range []string{
		"limit=0",
		"limit=101",
		"limit=abc",
		"offset=-1",
		"gameMode=bogus",
	} {
		rec := doRequest(srv, http.MethodGet, "/api/v1/leaderboard?"+query, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestHandleSubmitScore(t *testing.T) {
	userID := uuid.New()
	srv := newTestServer(t,
		withUsers(&mockUserRepo{
			getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				return testUser(id), nil
			},
		}),
		withLeaderboard(&mockLeaderboardStore{
			submitFn: func(_ context.Context, id uuid.UUID, username string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, error) {
				assert.Equal(t, userID, id)
				assert.Equal(t, "alice", username)
				assert.Equal(t, 42, score)
				entry := testEntry(score)
				entry.UserID = id
				return &entry, nil
			},
		}),
	)

	rec := doRequest(srv, http.MethodPost, "/api/v1/leaderboard",
		`{"score":42,"gameMode":"walls"}`, issueToken(t, srv, userID))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 42.0, resp["score"])
	assert.Equal(t, "alice", resp["username"])
}

func TestHandleSubmitScore_Validation(t *testing.T) {
	srv := newTestServer(t)
	token := issueToken(t, srv, uuid.New())

	rec := doRequest(srv, http.MethodPost, "/api/v1/leaderboard", `{"gameMode":"walls"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "score is required")

	rec = doRequest(srv, http.MethodPost, "/api/v1/leaderboard", `{"score":-5,"gameMode":"walls"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/leaderboard", `{"score":5,"gameMode":"bogus"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/leaderboard", `{"score":5,"gameMode":"walls"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = doRequest(srv, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Without a database pool readiness degenerates to liveness.
	rec = doRequest(srv, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}
