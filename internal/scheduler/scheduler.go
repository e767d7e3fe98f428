// Package scheduler runs the periodic reconciliation sweep. Ticks are
// serialized across process instances with a redis run-lock so two sweeps
// never requery the same rows concurrently.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/benx421/billpay/internal/service"
)

// Locker serializes sweep runs across instances.
type Locker interface {
	// Acquire attempts to take the run-lock, reporting whether this instance
	// now holds it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock back. Best effort; the lock's TTL bounds the
	// damage of a crashed holder.
	Release(ctx context.Context)
}

// Scheduler triggers a reconciliation sweep on a fixed interval.
type Scheduler struct {
	reconciler service.Reconciler
	lock       Locker
	interval   time.Duration
	logger     *slog.Logger
}

// New creates a Scheduler
func New(reconciler service.Reconciler, lock Locker, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		lock:       lock,
		interval:   interval,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reconciliation scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciliation scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		// Without the lock there is no overlap guarantee, so skip the tick.
		s.logger.Error("failed to acquire sweep lock, skipping tick", "error", err)
		return
	}
	if !held {
		s.logger.Debug("sweep lock held elsewhere, skipping tick")
		return
	}
	defer s.lock.Release(ctx)

	if _, err := s.reconciler.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("reconciliation sweep failed", "error", err)
	}
}
