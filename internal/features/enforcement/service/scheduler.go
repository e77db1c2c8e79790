package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/features/enforcement/models"
)

// Scheduler drives the scanner+sweeper cycle on a fixed interval. Ticks never
// overlap: each runs to completion inside the loop goroutine before the next
// interval is awaited.
type Scheduler struct {
	scanner  WorklistSource
	coord    *Coordinator
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(scanner WorklistSource, coord *Coordinator, interval time.Duration) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		coord:    coord,
		interval: interval,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunTick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info().Dur("interval", s.interval).Msg("Enforcement scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Info().Msg("Enforcement scheduler stopped")
}

// RunTick executes one full cycle synchronously: scan, process the worklist,
// sweep expired bans. Exposed so tests and the ops endpoint can trigger a
// cycle without waiting on the wall clock.
func (s *Scheduler) RunTick(ctx context.Context) models.BatchSummary {
	tickID := uuid.NewString()[:8]
	now := time.Now().UTC()

	var summary models.BatchSummary

	entries, err := s.scanner.Scan(ctx, now)
	if err != nil {
		// Store unreachable: abort the cycle, the next tick retries.
		logger.Error().Str("tick", tickID).Err(err).Msg("Birthday scan failed, aborting tick")
	} else {
		summary = s.coord.ProcessWorklist(ctx, entries, now)
	}

	// The sweeper runs unconditionally as the tail of every tick.
	swept, err := s.coord.Sweep(ctx, now)
	if err != nil {
		logger.Error().Str("tick", tickID).Err(err).Msg("Expiry sweep failed")
	}
	summary.SweptBanCount = swept

	logger.Info().
		Str("tick", tickID).
		Int("processed", summary.Processed).
		Int("banned", summary.Banned).
		Int("removal_failed", summary.RemovalFailed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int64("swept", swept).
		Msg("Enforcement tick finished")

	return summary
}
