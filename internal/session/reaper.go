package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dog-face/snake-game-be/internal/domain"
	"github.com/dog-face/snake-game-be/internal/metrics"
)

// Terminator force-ends a session without an owner check. Implemented by
// the lifecycle controller; the reaper is its only caller.
type Terminator interface {
	ForceEnd(ctx context.Context, sessionID uuid.UUID) error
}

// ActiveLister is the read capability the reaper sweeps over.
type ActiveLister interface {
	ListActive() []domain.Session
}

// Reaper periodically force-ends sessions whose last activity is older
// than the configured timeout. Each sweep snapshots the active list and
// then acts session by session, so no lock is held across the sweep and
// a racing explicit end simply wins the per-session removal.
type Reaper struct {
	store      ActiveLister
	terminator Terminator
	clock      clockwork.Clock
	interval   time.Duration
	timeout    time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReaper creates a stopped reaper; call Start to begin sweeping.
func NewReaper(store ActiveLister, terminator Terminator, clock clockwork.Clock, interval, timeout time.Duration) *Reaper {
	return &Reaper{
		store:      store,
		terminator: terminator,
		clock:      clock,
		interval:   interval,
		timeout:    timeout,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (r *Reaper) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop signals the loop to exit and waits for the current sweep to
// finish. Safe to call more than once.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			r.Sweep(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// Sweep performs one pass over the active sessions. It is best-effort
// and idempotent: sessions already removed by a racing explicit end are
// skipped without error, and nothing a single session does can abort
// the rest of the sweep.
func (r *Reaper) Sweep(ctx context.Context) {
	start := r.clock.Now()
	defer func() {
		metrics.ReaperSweepsTotal.Inc()
		metrics.ReaperSweepDuration.Observe(r.clock.Since(start).Seconds())
	}()

	now := r.clock.Now()
	for _, sess := range r.store.ListActive() {
		if now.Sub(sess.LastActivityAt) <= r.timeout {
			continue
		}

		err := r.terminator.ForceEnd(ctx, sess.ID)
		switch {
		case err == nil:
			metrics.ReaperReapedSessionsTotal.Inc()
			slog.Info("Reaped idle session",
				"session_id", sess.ID.String(),
				"owner_id", sess.OwnerID.String(),
				"idle", now.Sub(sess.LastActivityAt),
			)
		case errors.Is(err, domain.ErrSessionNotFound):
			// Lost the race against an explicit end; nothing to do.
		default:
			slog.Error("Failed to reap session", "session_id", sess.ID.String(), "error", err)
		}
	}
}
