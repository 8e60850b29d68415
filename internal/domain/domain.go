package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Session is one in-progress game owned by one authenticated player.
// ID, OwnerID, GameMode, and CreatedAt never change after creation.
type Session struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Username       string // denormalized at session start
	GameMode       GameMode
	State          GameState
	Score          int
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// User is a registered player account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// LeaderboardEntry is one finalized score.
type LeaderboardEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"-"`
	Username  string    `db:"username" json:"username"`
	Score     int       `db:"score" json:"score"`
	GameMode  GameMode  `db:"game_mode" json:"gameMode"`
	Date      time.Time `db:"date" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// --- Broadcast events ---

// EventType classifies session lifecycle events.
type EventType string

const (
	EventJoin   EventType = "join"
	EventUpdate EventType = "update"
	EventLeave  EventType = "leave"
)

// Event is an immutable broadcast message. Events are transient:
// delivered at most once to currently-subscribed spectators, never
// stored or replayed.
type Event struct {
	Type      EventType
	SessionID uuid.UUID
	OwnerID   uuid.UUID
	Username  string
	Payload   any
	Timestamp time.Time
}

// --- Interfaces ---

// SessionStore is the authoritative registry of active sessions. All
// mutating operations are atomic with respect to concurrent calls.
type SessionStore interface {
	Create(ownerID uuid.UUID, username string, mode GameMode, state GameState) (Session, error)
	Get(id uuid.UUID) (Session, error)
	Update(id uuid.UUID, state GameState) (Session, error)
	Remove(id uuid.UUID) (Session, error)
	ListActive() []Session
	FindByOwner(ownerID uuid.UUID) (Session, error)
	GetByOwnerOrSession(id uuid.UUID) (Session, error)
}

// EventPublisher pushes lifecycle events to connected spectators.
// Publish is fire-and-forget: it never blocks on spectator I/O and
// never fails the caller.
type EventPublisher interface {
	Publish(event Event)
}

// LeaderboardStore persists finalized scores.
type LeaderboardStore interface {
	Submit(ctx context.Context, userID uuid.UUID, username string, score int, mode GameMode) (*LeaderboardEntry, error)
	List(ctx context.Context, limit, offset int, mode *GameMode) ([]LeaderboardEntry, int, error)
}

// UserRepository abstracts user account persistence.
type UserRepository interface {
	Create(ctx context.Context, email, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// EndResult reports the outcome of ending a session. SubmitErr is set
// when the session terminated but the leaderboard write failed; callers
// must be able to tell "ended, recorded" from "ended, recording failed".
type EndResult struct {
	Session   Session
	Entry     *LeaderboardEntry
	SubmitErr error
}

// WatchService is the lifecycle controller contract the request layer
// routes session operations through.
type WatchService interface {
	Start(ctx context.Context, ownerID uuid.UUID, username string, mode GameMode) (Session, error)
	Update(ctx context.Context, sessionID, callerID uuid.UUID, state GameState) (Session, error)
	End(ctx context.Context, sessionID, callerID uuid.UUID, finalScore int, mode GameMode) (EndResult, error)
}
