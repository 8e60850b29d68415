package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dog-face/snake-game-be/internal/domain"
	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

type startRequest struct {
	GameMode string `json:"gameMode"`
}

type startResponse struct {
	SessionID string          `json:"sessionId"`
	GameMode  domain.GameMode `json:"gameMode"`
	StartedAt time.Time       `json:"startedAt"`
}

type updateRequest struct {
	GameState *domain.GameState `json:"gameState"`
}

type updateResponse struct {
	Message       string    `json:"message"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type endRequest struct {
	FinalScore *int   `json:"finalScore"`
	GameMode   string `json:"gameMode"`
}

type endResponse struct {
	Message          string                `json:"message"`
	LeaderboardEntry *leaderboardEntryView `json:"leaderboardEntry"`
	ScoreRecorded    bool                  `json:"scoreRecorded"`
}

type activePlayerView struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	Username      string           `json:"username"`
	Score         int              `json:"score"`
	GameMode      domain.GameMode  `json:"gameMode"`
	GameState     domain.GameState `json:"gameState"`
	StartedAt     time.Time        `json:"startedAt"`
	LastUpdatedAt time.Time        `json:"lastUpdatedAt"`
}

func toActivePlayerView(sess domain.Session) activePlayerView {
	return activePlayerView{
		ID:            sess.ID.String(),
		UserID:        sess.OwnerID.String(),
		Username:      sess.Username,
		Score:         sess.Score,
		GameMode:      sess.GameMode,
		GameState:     sess.State,
		StartedAt:     sess.CreatedAt,
		LastUpdatedAt: sess.LastActivityAt,
	}
}

func (s *Server) handleGetActivePlayers(c echo.Context) error {
	sessions := s.sessions.ListActive()

	players := make([]activePlayerView, 0, len(sessions))
	for _, sess := range sessions {
		players = append(players, toActivePlayerView(sess))
	}

	return c.JSON(200, map[string]any{"players": players})
}

func (s *Server) handleGetActivePlayer(c echo.Context) error {
	playerID, err := uuid.Parse(c.Param("playerId"))
	if err != nil {
		return apperrors.ValidationError("invalid player ID").WithField("player_id", c.Param("playerId"))
	}

	sess, err := s.sessions.GetByOwnerOrSession(playerID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return apperrors.NotFoundError("player session not found or not active")
	}
	if err != nil {
		return apperrors.InternalError("failed to look up session", err)
	}

	return c.JSON(200, toActivePlayerView(sess))
}

func (s *Server) handleStartSession(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	var req startRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	mode, err := domain.ParseGameMode(req.GameMode)
	if err != nil {
		return apperrors.ValidationError("game mode must be 'pass-through' or 'walls'").WithField("game_mode", req.GameMode)
	}

	ctx := c.Request().Context()

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	sess, err := s.watch.Start(ctx, user.ID, user.Username, mode)
	if errors.Is(err, domain.ErrOwnerSessionActive) {
		return apperrors.ConflictError("an active session already exists for this player").
			WithField("user_id", userID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to start session", err)
	}

	return c.JSON(201, startResponse{
		SessionID: sess.ID.String(),
		GameMode:  sess.GameMode,
		StartedAt: sess.CreatedAt,
	})
}

func (s *Server) handleUpdateSession(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		return apperrors.ValidationError("invalid session ID").WithField("session_id", c.Param("sessionId"))
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.GameState == nil {
		return apperrors.ValidationError("gameState is required")
	}

	sess, err := s.watch.Update(c.Request().Context(), sessionID, userID, *req.GameState)
	if err != nil {
		return watchError(err, sessionID)
	}

	return c.JSON(200, updateResponse{
		Message:       "Game state updated",
		LastUpdatedAt: sess.LastActivityAt,
	})
}

func (s *Server) handleEndSession(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		return apperrors.ValidationError("invalid session ID").WithField("session_id", c.Param("sessionId"))
	}

	var req endRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.FinalScore == nil {
		return apperrors.ValidationError("finalScore is required")
	}
	if *req.FinalScore < 0 {
		return apperrors.ValidationError("finalScore must be non-negative")
	}

	mode, err := domain.ParseGameMode(req.GameMode)
	if err != nil {
		return apperrors.ValidationError("game mode must be 'pass-through' or 'walls'").WithField("game_mode", req.GameMode)
	}

	result, err := s.watch.End(c.Request().Context(), sessionID, userID, *req.FinalScore, mode)
	if err != nil {
		return watchError(err, sessionID)
	}

	resp := endResponse{Message: "Session ended", ScoreRecorded: result.SubmitErr == nil}
	if result.Entry != nil {
		view := toLeaderboardEntryView(*result.Entry)
		resp.LeaderboardEntry = &view
	} else {
		resp.Message = "Session ended, score could not be recorded"
	}

	return c.JSON(200, resp)
}

// watchError maps lifecycle controller errors to transport errors.
func watchError(err error, sessionID uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NotFoundError("session not found").WithField("session_id", sessionID.String())
	case errors.Is(err, domain.ErrNotSessionOwner):
		return apperrors.ForbiddenError("session doesn't belong to authenticated user").WithField("session_id", sessionID.String())
	case errors.Is(err, domain.ErrInvalidGameState):
		return apperrors.ValidationError(err.Error())
	default:
		return apperrors.InternalError("session operation failed", err).WithField("session_id", sessionID.String())
	}
}
