package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

// CycleRunner is the unit of work the scheduler fires.
type CycleRunner interface {
	Run(ctx context.Context) model.CycleReport
}

// Scheduler triggers ingestion cycles: once immediately on Start, then
// every interval. Each Scheduler owns its timer and lifecycle, so
// multiple instances (e.g. in tests) do not interfere.
type Scheduler struct {
	interval time.Duration
	runner   CycleRunner
	logger   *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cycleWG sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(interval time.Duration, runner CycleRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		runner:   runner,
		logger:   logger,
	}
}

// Start begins the trigger loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("ingestion scheduler started", "interval", s.interval)
	return nil
}

// Stop halts future triggers and waits for in-flight cycles to finish,
// bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.cycleWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("ingestion scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the trigger loop. Ticks fire regardless of whether the
// previous cycle finished; overlapping cycles are absorbed by the
// store's (coin, timestamp) uniqueness, not by a mutex here.
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Fire immediately on start.
	s.fire()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fire()
		}
	}
}

// fire launches one cycle. Panics are contained here so a bad cycle
// never stops future triggers.
func (s *Scheduler) fire() {
	s.cycleWG.Add(1)
	go func() {
		defer s.cycleWG.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("ingestion cycle panicked", "panic", r)
			}
		}()

		report := s.runner.Run(s.ctx)
		if report.Err != nil {
			s.logger.Warn("ingestion cycle ended without saves",
				"cycle_id", report.CycleID,
				"err", report.Err,
			)
		}
	}()
}
