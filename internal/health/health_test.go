package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrWong99/voxbook/internal/dictionary"
)

func ok(context.Context) error { return nil }

func failWith(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func readyz(t *testing.T, h *Handler, ctx context.Context) (int, result) {
	t.Helper()
	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New(Checker{Name: "bookings", Check: failWith("down")}).Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "all pass",
			checkers:   []Checker{{Name: "bookings", Check: ok}, {Name: "dictionaries", Check: ok}},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantChecks: map[string]string{"bookings": "ok", "dictionaries": "ok"},
		},
		{
			name:       "one fails",
			checkers:   []Checker{{Name: "bookings", Check: failWith("connection refused")}, {Name: "dictionaries", Check: ok}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "fail",
			wantChecks: map[string]string{"bookings": "fail: connection refused", "dictionaries": "ok"},
		},
		{
			name:       "all fail",
			checkers:   []Checker{{Name: "bookings", Check: failWith("timeout")}, {Name: "teams", Check: failWith("no rows")}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "fail",
			wantChecks: map[string]string{"bookings": "fail: timeout", "teams": "fail: no rows"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status, body := readyz(t, New(tc.checkers...), context.Background())
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if body.Status != tc.wantBody {
				t.Errorf("body status = %q, want %q", body.Status, tc.wantBody)
			}
			for name, want := range tc.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("check %q = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_RunsConcurrently(t *testing.T) {
	t.Parallel()

	var running atomic.Int32
	barrier := func(ctx context.Context) error {
		running.Add(1)
		deadline := time.After(2 * time.Second)
		for running.Load() < 2 {
			select {
			case <-deadline:
				return errors.New("sibling never started")
			case <-time.After(time.Millisecond):
			}
		}
		return nil
	}
	status, body := readyz(t, New(Checker{Name: "a", Check: barrier}, Checker{Name: "b", Check: barrier}), context.Background())
	if status != http.StatusOK {
		t.Errorf("status = %d, checks = %v", status, body.Checks)
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	if status, _ := readyz(t, h, ctx); status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", status, http.StatusServiceUnavailable)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestPingChecker(t *testing.T) {
	t.Parallel()

	if err := PingChecker("bookings", fakePinger{}).Check(context.Background()); err != nil {
		t.Errorf("healthy pinger: %v", err)
	}
	want := errors.New("pool closed")
	c := PingChecker("bookings", fakePinger{err: want})
	if c.Name != "bookings" {
		t.Errorf("name = %q", c.Name)
	}
	if err := c.Check(context.Background()); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestCountChecker(t *testing.T) {
	t.Parallel()

	store := dictionary.NewStore()
	if err := CountChecker("dictionaries", store.Len).Check(context.Background()); err != nil {
		t.Errorf("builtin store: %v", err)
	}
	empty := dictionary.NewStore(dictionary.WithoutBuiltins())
	if err := CountChecker("dictionaries", empty.Len).Check(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty store err = %v, want ErrEmpty", err)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New(Checker{Name: "test", Check: ok}).Register(mux)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
