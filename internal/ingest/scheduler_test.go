package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/castordeluca/coinwatch/internal/model"
)

// runnerFunc adapts a function to CycleRunner.
type runnerFunc func(ctx context.Context) model.CycleReport

func (f runnerFunc) Run(ctx context.Context) model.CycleReport {
	return f(ctx)
}

func TestSchedulerFiresImmediately(t *testing.T) {
	var runs atomic.Int32
	runner := runnerFunc(func(ctx context.Context) model.CycleReport {
		runs.Add(1)
		return model.CycleReport{}
	})

	s := NewScheduler(time.Hour, runner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The first cycle fires on start, not on the first tick.
	deadline := time.After(time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no cycle fired within 1s of Start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestSchedulerFiresPeriodically(t *testing.T) {
	var runs atomic.Int32
	runner := runnerFunc(func(ctx context.Context) model.CycleReport {
		runs.Add(1)
		return model.CycleReport{}
	})

	s := NewScheduler(20*time.Millisecond, runner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(110 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Immediate fire plus several ticks.
	if got := runs.Load(); got < 3 {
		t.Errorf("runs = %d, want >= 3", got)
	}
}

func TestSchedulerSurvivesPanickingCycle(t *testing.T) {
	var runs atomic.Int32
	runner := runnerFunc(func(ctx context.Context) model.CycleReport {
		if runs.Add(1) == 1 {
			panic("cycle blew up")
		}
		return model.CycleReport{}
	})

	s := NewScheduler(20*time.Millisecond, runner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(90 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := runs.Load(); got < 2 {
		t.Errorf("runs = %d, want >= 2 (panic must not stop the schedule)", got)
	}
}

func TestSchedulerDoesNotSerializeCycles(t *testing.T) {
	release := make(chan struct{})
	var inFlight, peak atomic.Int32

	runner := runnerFunc(func(ctx context.Context) model.CycleReport {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return model.CycleReport{}
	})

	s := NewScheduler(15*time.Millisecond, runner, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Hold every cycle open across several ticks.
	time.Sleep(80 * time.Millisecond)
	close(release)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := peak.Load(); got < 2 {
		t.Errorf("peak concurrent cycles = %d, want >= 2 (ticks must not wait)", got)
	}
}
