// Package session implements the in-memory registry of active game
// sessions and the idle reaper that expires them.
package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dog-face/snake-game-be/internal/domain"
	"github.com/dog-face/snake-game-be/internal/metrics"
)

// Store is the authoritative in-memory map of active sessions. A session
// ID exists in the store if and only if the session is active; removed
// IDs are never reinserted. One coarse mutex guards all operations, so
// every mutation is atomic as a unit.
type Store struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	sessions map[uuid.UUID]*domain.Session
	byOwner  map[uuid.UUID]uuid.UUID // ownerID -> sessionID
}

// NewStore creates an empty session store.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:    clock,
		sessions: make(map[uuid.UUID]*domain.Session),
		byOwner:  make(map[uuid.UUID]uuid.UUID),
	}
}

// Create registers a new session for an owner. It fails with
// domain.ErrOwnerSessionActive if the owner already has a live session
// (one session per owner; superseding is not silently allowed).
func (s *Store) Create(ownerID uuid.UUID, username string, mode domain.GameMode, state domain.GameState) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOwner[ownerID]; exists {
		return domain.Session{}, domain.ErrOwnerSessionActive
	}

	now := s.clock.Now()
	sess := &domain.Session{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Username:       username,
		GameMode:       mode,
		State:          cloneState(state),
		Score:          state.Score,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.sessions[sess.ID] = sess
	s.byOwner[ownerID] = sess.ID
	metrics.ActiveSessions.Set(float64(len(s.sessions)))

	return snapshot(sess), nil
}

// Get returns a copy of the session, or domain.ErrSessionNotFound.
func (s *Store) Get(id uuid.UUID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return snapshot(sess), nil
}

// Update stores a new game state and refreshes the activity timestamp.
func (s *Store) Update(id uuid.UUID, state domain.GameState) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	sess.State = cloneState(state)
	sess.Score = state.Score
	sess.LastActivityAt = s.clock.Now()

	return snapshot(sess), nil
}

// Remove deletes the session and returns its final snapshot. A removed
// ID behaves exactly like one that never existed.
func (s *Store) Remove(id uuid.UUID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	delete(s.sessions, id)
	delete(s.byOwner, sess.OwnerID)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))

	return snapshot(sess), nil
}

// ListActive returns copies of all active sessions, most recently
// active first.
func (s *Store) ListActive() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, snapshot(sess))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})
	return result
}

// FindByOwner returns the owner's active session, if any.
func (s *Store) FindByOwner(ownerID uuid.UUID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byOwner[ownerID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return snapshot(s.sessions[id]), nil
}

// GetByOwnerOrSession resolves an ID that may be either a session ID or
// an owner ID. This is the spectator-facing lookup capability.
func (s *Store) GetByOwnerOrSession(id uuid.UUID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return snapshot(sess), nil
	}
	if sessID, ok := s.byOwner[id]; ok {
		return snapshot(s.sessions[sessID]), nil
	}
	return domain.Session{}, domain.ErrSessionNotFound
}

// snapshot returns a copy safe to hand out: the snake slice is the only
// shared reference inside a Session.
func snapshot(sess *domain.Session) domain.Session {
	out := *sess
	out.State = cloneState(sess.State)
	return out
}

func cloneState(state domain.GameState) domain.GameState {
	out := state
	out.Snake = make([]domain.Position, len(state.Snake))
	copy(out.Snake, state.Snake)
	return out
}
