package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrExhausted is returned when no backend in a [Failover] produced a result.
var ErrExhausted = errors.New("resilience: all backends failed")

// Backend is one named member of a [Failover].
type Backend[T any] struct {
	Name  string
	Value T
}

type member[T any] struct {
	Backend[T]
	breaker *Breaker
}

// Failover tries backends in order, skipping those whose breaker is open.
type Failover[T any] struct {
	members []member[T]

	// stop reports errors that must be returned to the caller immediately
	// instead of moving on to the next backend.
	stop func(error) bool
}

// NewFailover builds a failover over backends in preference order. cfg is
// copied into each backend's breaker with Name replaced.
func NewFailover[T any](cfg BreakerConfig, backends ...Backend[T]) *Failover[T] {
	f := &Failover[T]{members: make([]member[T], 0, len(backends))}
	for _, b := range backends {
		bc := cfg
		bc.Name = b.Name
		f.members = append(f.members, member[T]{Backend: b, breaker: NewBreaker(bc)})
	}
	f.stop = func(err error) bool { return !cfg.isFailure(err) }
	return f
}

func (cfg BreakerConfig) isFailure(err error) bool {
	if cfg.IsFailure != nil {
		return cfg.IsFailure(err)
	}
	return countsAsFailure(err)
}

// Len returns the number of backends.
func (f *Failover[T]) Len() int { return len(f.members) }

// States returns each backend's breaker state keyed by name.
func (f *Failover[T]) States() map[string]State {
	out := make(map[string]State, len(f.members))
	for _, m := range f.members {
		out[m.Name] = m.breaker.State()
	}
	return out
}

// Call runs fn against the first backend that succeeds. Errors the breaker
// config does not count as failures end the search and are returned as-is.
func Call[T, R any](ctx context.Context, f *Failover[T], fn func(context.Context, Backend[T]) (R, error)) (R, error) {
	var (
		zero R
		errs []error
	)
	for _, m := range f.members {
		var out R
		err := m.breaker.Do(ctx, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx, m.Backend)
			return err
		})
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrOpen) && f.stop(err) {
			return zero, err
		}
		if errors.Is(err, ErrOpen) {
			slog.Debug("backend skipped, circuit open", "backend", m.Name)
		} else {
			slog.Warn("backend failed, trying next", "backend", m.Name, "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", m.Name, err))
	}
	return zero, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
