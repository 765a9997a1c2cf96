package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBreaker(cfg BreakerConfig) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(cfg)
	b.now = clk.Now
	return b, clk
}

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _ := newTestBreaker(BreakerConfig{MaxFailures: 2, CoolDown: time.Minute})

	for range 2 {
		if err := b.Do(ctx, fail); !errors.Is(err, errBoom) {
			t.Fatalf("Do = %v, want errBoom", err)
		}
	}
	if got := b.State(); got != Open {
		t.Fatalf("State = %v, want open", got)
	}
	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Errorf("open breaker: err=%v called=%v", err, called)
	}
}

func TestBreaker_SuccessResetsRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _ := newTestBreaker(BreakerConfig{MaxFailures: 2})

	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, succeed)
	_ = b.Do(ctx, fail)
	if got := b.State(); got != Closed {
		t.Errorf("State = %v, want closed", got)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, clk := newTestBreaker(BreakerConfig{MaxFailures: 1, CoolDown: time.Minute, TrialCalls: 2})

	_ = b.Do(ctx, fail)
	clk.Advance(time.Minute)
	if got := b.State(); got != HalfOpen {
		t.Fatalf("State after cool-down = %v, want half-open", got)
	}
	if err := b.Do(ctx, succeed); err != nil {
		t.Fatalf("trial 1: %v", err)
	}
	if got := b.State(); got != HalfOpen {
		t.Fatalf("State after one trial = %v, want half-open", got)
	}
	if err := b.Do(ctx, succeed); err != nil {
		t.Fatalf("trial 2: %v", err)
	}
	if got := b.State(); got != Closed {
		t.Errorf("State = %v, want closed", got)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, clk := newTestBreaker(BreakerConfig{MaxFailures: 1, CoolDown: time.Minute})

	_ = b.Do(ctx, fail)
	clk.Advance(2 * time.Minute)
	_ = b.Do(ctx, fail)
	if got := b.State(); got != Open {
		t.Fatalf("State = %v, want open", got)
	}
	clk.Advance(30 * time.Second)
	if err := b.Do(ctx, succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("Do during new cool-down = %v, want ErrOpen", err)
	}
}

func TestBreaker_CancellationNotCounted(t *testing.T) {
	t.Parallel()
	b, _ := newTestBreaker(BreakerConfig{MaxFailures: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if got := b.State(); got != Closed {
		t.Errorf("State = %v, want closed", got)
	}
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()
	b, _ := newTestBreaker(BreakerConfig{MaxFailures: 1})

	_ = b.Do(context.Background(), fail)
	b.Reset()
	if got := b.State(); got != Closed {
		t.Errorf("State = %v, want closed", got)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	for s, want := range map[State]string{Closed: "closed", Open: "open", HalfOpen: "half-open", State(9): "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
