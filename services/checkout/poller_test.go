package checkout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPollerFiresOnceOnSettlement(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: 5 * time.Millisecond}, zap.NewNop())

	var settled atomic.Int32
	ticks := atomic.Int32{}
	err := p.Start(
		func(ctx context.Context) (bool, error) {
			return ticks.Add(1) >= 3, nil
		},
		func() { settled.Add(1) },
		nil,
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Wait()
	if got := settled.Load(); got != 1 {
		t.Fatalf("onSettled fired %d times, want 1", got)
	}
	if p.Running() {
		t.Fatalf("poller still running after settlement")
	}
}

func TestPollerStopPreventsCallback(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: time.Hour}, zap.NewNop())

	var settled atomic.Int32
	err := p.Start(
		func(ctx context.Context) (bool, error) { return true, nil },
		func() { settled.Add(1) },
		nil,
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Stop before the first tick can possibly fire.
	p.Stop()
	p.Wait()
	if got := settled.Load(); got != 0 {
		t.Fatalf("onSettled fired %d times after Stop, want 0", got)
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: time.Hour}, zap.NewNop())
	if err := p.Start(func(ctx context.Context) (bool, error) { return false, nil }, func() {}, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()
	p.Stop()
	p.Wait()
}

func TestPollerRejectsSecondStart(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: time.Hour}, zap.NewNop())
	predicate := func(ctx context.Context) (bool, error) { return false, nil }
	if err := p.Start(predicate, func() {}, nil); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer func() {
		p.Stop()
		p.Wait()
	}()
	if err := p.Start(predicate, func() {}, nil); err != ErrPollerRunning {
		t.Fatalf("second Start = %v, want ErrPollerRunning", err)
	}
}

func TestPollerMaxAttemptsExhausts(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: 2 * time.Millisecond, MaxAttempts: 3}, zap.NewNop())

	var settled, exhausted atomic.Int32
	ticks := atomic.Int32{}
	err := p.Start(
		func(ctx context.Context) (bool, error) {
			ticks.Add(1)
			return false, nil
		},
		func() { settled.Add(1) },
		func() { exhausted.Add(1) },
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Wait()
	if got := ticks.Load(); got != 3 {
		t.Fatalf("predicate ran %d times, want 3", got)
	}
	if settled.Load() != 0 {
		t.Fatalf("onSettled fired without settlement")
	}
	if got := exhausted.Load(); got != 1 {
		t.Fatalf("onExhausted fired %d times, want 1", got)
	}
}

func TestPollerTimeoutExhausts(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: 2 * time.Millisecond, Timeout: 15 * time.Millisecond}, zap.NewNop())

	var exhausted atomic.Int32
	err := p.Start(
		func(ctx context.Context) (bool, error) { return false, nil },
		func() { t.Error("onSettled fired") },
		func() { exhausted.Add(1) },
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Wait()
	if got := exhausted.Load(); got != 1 {
		t.Fatalf("onExhausted fired %d times, want 1", got)
	}
}

func TestPollerPredicateErrorsKeepPolling(t *testing.T) {
	p := NewSettlementPoller(PollPolicy{Interval: 2 * time.Millisecond}, zap.NewNop())

	var settled atomic.Int32
	ticks := atomic.Int32{}
	err := p.Start(
		func(ctx context.Context) (bool, error) {
			if ticks.Add(1) < 3 {
				return false, context.DeadlineExceeded
			}
			return true, nil
		},
		func() { settled.Add(1) },
		nil,
	)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Wait()
	if got := settled.Load(); got != 1 {
		t.Fatalf("onSettled fired %d times, want 1", got)
	}
}
