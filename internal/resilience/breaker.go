// Package resilience keeps the voice session usable when a server-side
// speech backend misbehaves.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open).
// [Failover] orders several backends of one kind behind per-backend
// breakers, and [Transcriber] applies it to [stt.Transcriber].
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota

	// Open rejects calls with [ErrOpen] until the cool-down elapses.
	Open

	// HalfOpen lets a limited number of trial calls through. A failed trial
	// re-opens the breaker; enough successful trial calls close it.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker]. Zero fields take the defaults noted.
type BreakerConfig struct {
	// Name labels log lines.
	Name string

	// MaxFailures is the run of consecutive failures that opens a closed
	// breaker. Default: 3.
	MaxFailures int

	// CoolDown is how long an open breaker waits before probing. Default: 30s.
	CoolDown time.Duration

	// TrialCalls is the number of successful half-open calls needed to close.
	// Default: 1.
	TrialCalls int

	// IsFailure decides whether an error counts against the backend. Nil
	// counts every error except context cancellation.
	IsFailure func(error) bool
}

// Breaker guards calls to a single backend.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inflight int
	trialsOK int
}

// NewBreaker returns a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	if cfg.TrialCalls <= 0 {
		cfg.TrialCalls = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = countsAsFailure
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

func countsAsFailure(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn when the breaker admits the call and records its outcome.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	trial, err := b.admit()
	if err != nil {
		return err
	}
	err = fn(ctx)
	b.record(trial, err)
	return err
}

func (b *Breaker) admit() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.now().Sub(b.openedAt) < b.cfg.CoolDown {
			return false, ErrOpen
		}
		b.state = HalfOpen
		b.inflight = 0
		b.trialsOK = 0
		slog.Info("circuit half-open", "backend", b.cfg.Name)
	}
	if b.state == HalfOpen {
		if b.inflight >= b.cfg.TrialCalls {
			return false, ErrOpen
		}
		b.inflight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) record(trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.cfg.IsFailure(err)
	if trial {
		b.inflight--
	}
	switch {
	case failed && (trial || b.state == HalfOpen):
		b.trip()
		slog.Warn("circuit re-opened", "backend", b.cfg.Name, "err", err)
	case failed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.trip()
			slog.Warn("circuit opened", "backend", b.cfg.Name, "failures", b.failures, "err", err)
		}
	case trial && err == nil:
		b.trialsOK++
		if b.trialsOK >= b.cfg.TrialCalls {
			b.state = Closed
			b.failures = 0
			slog.Info("circuit closed", "backend", b.cfg.Name)
		}
	case err == nil:
		b.failures = 0
	}
}

// trip must be called with b.mu held.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures = 0
}

// State reports the current mode. An open breaker whose cool-down has
// elapsed reports [HalfOpen]; the transition itself happens on the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.CoolDown {
		return HalfOpen
	}
	return b.state
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.inflight = 0
	b.trialsOK = 0
}
