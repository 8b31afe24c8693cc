// Package scheduler drives the periodic ingest → evaluate → settle
// cycle. Cycles are mutually exclusive: a tick that arrives while the
// previous cycle is still running is skipped, not queued, so overlapping
// runs can never race on settlement.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/akudrin/dotabet-backend/internal/metrics"
)

type Syncer interface {
	Sync(ctx context.Context) error
}

type Evaluator interface {
	EvaluateDue(ctx context.Context) error
}

type Scheduler struct {
	interval time.Duration
	ingest   Syncer
	settle   Evaluator
	log      *slog.Logger

	mu sync.Mutex // run-in-progress guard
}

func New(interval time.Duration, ingest Syncer, settle Evaluator, log *slog.Logger) *Scheduler {
	return &Scheduler{interval: interval, ingest: ingest, settle: settle, log: log}
}

// Run blocks until ctx is cancelled. The first cycle fires immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.runCycle(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes one full cycle. A failure in the sync step ends the
// cycle early; the next tick starts clean. Panics are contained to the
// cycle.
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.mu.TryLock() {
		s.log.Warn("previous cycle still running, tick skipped")
		return
	}
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panic", "err", r)
		}
	}()

	start := time.Now()
	metrics.SyncCyclesTotal.Inc()

	if err := s.ingest.Sync(ctx); err != nil {
		s.log.Error("sync step failed, cycle aborted", "err", err)
		return
	}
	if err := s.settle.EvaluateDue(ctx); err != nil {
		s.log.Error("evaluate step failed", "err", err)
	}

	elapsed := time.Since(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())
	s.log.Info("cycle complete", "took", elapsed)
}
