// Package watch is the session lifecycle controller: it validates
// transitions, mutates the session store, finalizes scores, and emits
// spectator events. All session mutations in the system go through it.
package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dog-face/snake-game-be/internal/domain"
	"github.com/dog-face/snake-game-be/internal/metrics"
)

// Service orchestrates session lifecycle operations. The store mutation
// and the event emission form one logical unit: the event fires at the
// point the store commit succeeds, independent of the caller sticking
// around afterwards.
type Service struct {
	store       domain.SessionStore
	leaderboard domain.LeaderboardStore
	publisher   domain.EventPublisher
	clock       clockwork.Clock

	// mu holds each store commit and the event announcing it together.
	// Without it a reaped session's leave could be published before a
	// concurrent update's event even though the removal committed later.
	mu sync.Mutex
}

// NewService creates the lifecycle controller.
func NewService(store domain.SessionStore, leaderboard domain.LeaderboardStore, publisher domain.EventPublisher, clock clockwork.Clock) *Service {
	return &Service{
		store:       store,
		leaderboard: leaderboard,
		publisher:   publisher,
		clock:       clock,
	}
}

// Start creates a session for the owner and announces it. Fails with
// domain.ErrOwnerSessionActive if the owner is already playing.
func (s *Service) Start(ctx context.Context, ownerID uuid.UUID, username string, mode domain.GameMode) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Create(ownerID, username, mode, domain.InitialGameState())
	if err != nil {
		return domain.Session{}, err
	}

	metrics.SessionsStartedTotal.Inc()
	slog.Info("Session started", "session_id", sess.ID.String(), "owner_id", ownerID.String(), "game_mode", mode)

	s.publisher.Publish(domain.Event{
		Type:      domain.EventJoin,
		SessionID: sess.ID,
		OwnerID:   sess.OwnerID,
		Username:  sess.Username,
		Payload: map[string]any{
			"id":       sess.ID.String(),
			"username": sess.Username,
			"score":    sess.Score,
			"gameMode": sess.GameMode,
		},
		Timestamp: s.clock.Now(),
	})

	return sess, nil
}

// Update stores a new game state for the caller's session and announces
// it. The caller must own the session.
func (s *Service) Update(ctx context.Context, sessionID, callerID uuid.UUID, state domain.GameState) (domain.Session, error) {
	if err := state.Validate(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.OwnerID != callerID {
		return domain.Session{}, domain.ErrNotSessionOwner
	}

	sess, err = s.store.Update(sessionID, state)
	if err != nil {
		return domain.Session{}, err
	}

	s.publisher.Publish(domain.Event{
		Type:      domain.EventUpdate,
		SessionID: sess.ID,
		OwnerID:   sess.OwnerID,
		Username:  sess.Username,
		Payload: map[string]any{
			"id":        sess.ID.String(),
			"username":  sess.Username,
			"score":     sess.Score,
			"gameMode":  sess.GameMode,
			"gameState": sess.State,
		},
		Timestamp: s.clock.Now(),
	})

	return sess, nil
}

// End terminates the caller's session, submits the final score, and
// announces the leave. A failed leaderboard write never blocks
// termination: the session is still removed and the leave still fires,
// and the failure is reported in EndResult.SubmitErr.
func (s *Service) End(ctx context.Context, sessionID, callerID uuid.UUID, finalScore int, mode domain.GameMode) (domain.EndResult, error) {
	sess, err := s.removeAndAnnounce(sessionID, &callerID, finalScore)
	if err != nil {
		return domain.EndResult{}, err
	}

	metrics.SessionsEndedTotal.WithLabelValues("explicit").Inc()
	slog.Info("Session ended", "session_id", sess.ID.String(), "owner_id", sess.OwnerID.String(), "final_score", finalScore)

	result := domain.EndResult{Session: sess}
	entry, err := s.leaderboard.Submit(ctx, sess.OwnerID, sess.Username, finalScore, mode)
	if err != nil {
		metrics.LeaderboardSubmitFailuresTotal.Inc()
		slog.Error("Leaderboard submission failed after session end",
			"session_id", sess.ID.String(),
			"owner_id", sess.OwnerID.String(),
			"error", err,
		)
		result.SubmitErr = err
		return result, nil
	}

	result.Entry = entry
	return result, nil
}

// ForceEnd terminates a session without an ownership check. It is
// invoked only by the idle reaper; the final score is the last one the
// session reported. Leaderboard failures are logged, never propagated.
func (s *Service) ForceEnd(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.removeAndAnnounce(sessionID, nil, -1)
	if err != nil {
		return err
	}

	metrics.SessionsEndedTotal.WithLabelValues("reaped").Inc()

	if _, err := s.leaderboard.Submit(ctx, sess.OwnerID, sess.Username, sess.Score, sess.GameMode); err != nil {
		metrics.LeaderboardSubmitFailuresTotal.Inc()
		slog.Error("Leaderboard submission failed for reaped session",
			"session_id", sess.ID.String(),
			"owner_id", sess.OwnerID.String(),
			"error", err,
		)
	}

	return nil
}

// removeAndAnnounce removes a session and publishes its leave event
// under mu, so the leave cannot overtake a concurrently committed
// update. A nil callerID skips the ownership check and takes the final
// score from the last stored state.
func (s *Service) removeAndAnnounce(sessionID uuid.UUID, callerID *uuid.UUID, finalScore int) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if callerID != nil && sess.OwnerID != *callerID {
		return domain.Session{}, domain.ErrNotSessionOwner
	}

	sess, err = s.store.Remove(sessionID)
	if err != nil {
		return domain.Session{}, err
	}

	if callerID == nil {
		finalScore = sess.Score
	}
	s.publishLeave(sess, finalScore)
	return sess, nil
}

func (s *Service) publishLeave(sess domain.Session, finalScore int) {
	s.publisher.Publish(domain.Event{
		Type:      domain.EventLeave,
		SessionID: sess.ID,
		OwnerID:   sess.OwnerID,
		Username:  sess.Username,
		Payload:   map[string]any{"finalScore": finalScore},
		Timestamp: s.clock.Now(),
	})
}
