package server

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dog-face/snake-game-be/internal/domain"
	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

type leaderboardEntryView struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Score    int             `json:"score"`
	GameMode domain.GameMode `json:"gameMode"`
	Date     string          `json:"date"`
}

type submitScoreRequest struct {
	Score    *int   `json:"score"`
	GameMode string `json:"gameMode"`
}

func toLeaderboardEntryView(entry domain.LeaderboardEntry) leaderboardEntryView {
	return leaderboardEntryView{
		ID:       entry.ID.String(),
		Username: entry.Username,
		Score:    entry.Score,
		GameMode: entry.GameMode,
		Date:     entry.Date.Format("2006-01-02"),
	}
}

func (s *Server) handleGetLeaderboard(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return apperrors.ValidationError("limit must be between 1 and 100")
		}
		limit = parsed
	}

	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return apperrors.ValidationError("offset must be non-negative")
		}
		offset = parsed
	}

	var mode *domain.GameMode
	if raw := c.QueryParam("gameMode"); raw != "" {
		parsed, err := domain.ParseGameMode(raw)
		if err != nil {
			return apperrors.ValidationError("game mode must be 'pass-through' or 'walls'").WithField("game_mode", raw)
		}
		mode = &parsed
	}

	entries, total, err := s.leaderboard.List(c.Request().Context(), limit, offset, mode)
	if err != nil {
		return apperrors.InternalError("failed to load leaderboard", err)
	}

	views := make([]leaderboardEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toLeaderboardEntryView(entry))
	}

	return c.JSON(200, map[string]any{
		"entries": views,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleSubmitScore(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	var req submitScoreRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Score == nil {
		return apperrors.ValidationError("score is required")
	}
	if *req.Score < 0 {
		return apperrors.ValidationError("score must be non-negative")
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

	entry, err := s.leaderboard.Submit(ctx, user.ID, user.Username, *req.Score, mode)
	if err != nil {
		return apperrors.InternalError("failed to submit score", err)
	}

	return c.JSON(201, toLeaderboardEntryView(*entry))
}
