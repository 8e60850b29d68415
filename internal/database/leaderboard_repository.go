package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dog-face/snake-game-be/internal/domain"
)

const leaderboardColumns = `id, user_id, username, score, game_mode, date, created_at`

// LeaderboardRepo implements domain.LeaderboardStore backed by PostgreSQL.
type LeaderboardRepo struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepo creates a LeaderboardRepo from the shared pool.
func NewLeaderboardRepo(pool *pgxpool.Pool) *LeaderboardRepo {
	return &LeaderboardRepo{pool: pool}
}

func (r *LeaderboardRepo) Submit(ctx context.Context, userID uuid.UUID, username string, score int, mode domain.GameMode) (*domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leaderboard (user_id, username, score, game_mode)
		VALUES ($1, $2, $3, $4)
		RETURNING `+leaderboardColumns,
		userID, username, score, string(mode)).Scan(
		&entry.ID, &entry.UserID, &entry.Username, &entry.Score, &entry.GameMode, &entry.Date, &entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to submit score: %w", err)
	}
	return &entry, nil
}

// List returns entries sorted by score descending, with the total count
// for pagination. mode filters by game mode when non-nil.
func (r *LeaderboardRepo) List(ctx context.Context, limit, offset int, mode *domain.GameMode) ([]domain.LeaderboardEntry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM leaderboard`
	listQuery := `SELECT ` + leaderboardColumns + ` FROM leaderboard`

	args := []any{}
	if mode != nil {
		countQuery += ` WHERE game_mode = $1`
		listQuery += ` WHERE game_mode = $1`
		args = append(args, string(*mode))
	}

	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}

	listQuery += fmt.Sprintf(` ORDER BY score DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leaderboard entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.Score, &entry.GameMode, &entry.Date, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read leaderboard entries: %w", err)
	}

	return entries, total, nil
}
