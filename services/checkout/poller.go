package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval matches the cadence buyers expect while watching a
// PIX QR code: quick enough to feel live, slow enough to spare the gateway.
const DefaultPollInterval = 3 * time.Second

// ErrPollerRunning is returned by Start when the poller already has an
// active loop. One loop per session, always.
var ErrPollerRunning = errors.New("settlement poller already running")

// PollPolicy bounds a settlement poll. Zero values mean unbounded: the
// poller runs until Stop or settlement.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// SettlementPoller periodically asks a predicate whether a charge has
// settled and fires onSettled exactly once when it has.
//
// Stop is synchronous with respect to callbacks: once Stop returns, no
// callback will fire, even if a tick is mid-flight. That guarantee is what
// lets the orchestrator tear a session down without racing a late tick.
//
// Callbacks run under the poller's lock. Do not call Stop while holding a
// lock that a callback acquires, or the two will deadlock.
type SettlementPoller struct {
	policy PollPolicy
	logger *zap.Logger

	mu      sync.Mutex
	stopped bool
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSettlementPoller(policy PollPolicy, logger *zap.Logger) *SettlementPoller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollInterval
	}
	return &SettlementPoller{policy: policy, logger: logger}
}

// Start launches the polling loop. predicate is called once per tick;
// onSettled fires when it first reports true. onExhausted (optional) fires
// if MaxAttempts or Timeout runs out first. Errors from the predicate are
// logged and the tick is treated as unsettled.
func (p *SettlementPoller) Start(predicate func(ctx context.Context) (bool, error), onSettled func(), onExhausted func()) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPollerRunning
	}
	p.running = true
	p.stopped = false

	var ctx context.Context
	var cancel context.CancelFunc
	if p.policy.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), p.policy.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.loop(ctx, done, predicate, onSettled, onExhausted)
	return nil
}

func (p *SettlementPoller) loop(ctx context.Context, done chan struct{}, predicate func(ctx context.Context) (bool, error), onSettled func(), onExhausted func()) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.policy.Interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				p.fire(onExhausted)
			}
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					p.fire(onExhausted)
				}
				return
			}
			settled, err := predicate(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("settlement check failed", zap.Error(err))
			} else if settled {
				p.fire(onSettled)
				return
			}
			attempts++
			if p.policy.MaxAttempts > 0 && attempts >= p.policy.MaxAttempts {
				p.fire(onExhausted)
				return
			}
		}
	}
}

// fire runs cb under the poller lock so it is mutually exclusive with Stop.
// A poller that was stopped never fires, and once a callback fires the
// poller marks itself stopped so nothing fires twice.
func (p *SettlementPoller) fire(cb func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	if cb != nil {
		cb()
	}
}

// Stop halts the loop. Idempotent. After Stop returns, no callback from
// this poller will run.
func (p *SettlementPoller) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether the polling loop is active.
func (p *SettlementPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Wait blocks until the current loop exits. Mainly for tests and shutdown.
func (p *SettlementPoller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}
