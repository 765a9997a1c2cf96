package intake_test

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
)

// now is Wednesday 14 January 2026, 10:00 UTC.
var now = time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC)

var roster = []team.Team{{ID: "t1", Name: "Marketing"}, {ID: "t2", Name: "Engineering"}}

func newParser(t *testing.T) (*intake.Parser, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return intake.New(intake.WithMetrics(m), intake.WithLocation(time.UTC)), reader
}

func TestParse_EndToEnd(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t)
	cmd := p.Parse(context.Background(), intake.Input{
		Transcript: "book marketing team meeting tomorrow at 3pm for 2 hours",
		Language:   "en-US",
		Roster:     []team.Team{{ID: "t1", Name: "Marketing"}},
		Now:        now,
	})
	if cmd == nil {
		t.Fatal("Parse returned nil")
	}
	if cmd.TeamID != "t1" {
		t.Errorf("TeamID = %q, want t1", cmd.TeamID)
	}
	if want := time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC); cmd.Start == nil || !cmd.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cmd.Start, want)
	}
	if want := time.Date(2026, 1, 15, 17, 0, 0, 0, time.UTC); cmd.End == nil || !cmd.End.Equal(want) {
		t.Errorf("End = %v, want %v", cmd.End, want)
	}
	if cmd.IsAllDay {
		t.Error("IsAllDay = true, want false")
	}
	if cmd.EventName != "team meeting tomorrow at 3pm for 2 hours" {
		t.Errorf("EventName = %q", cmd.EventName)
	}
	if cmd.OriginalTranscript != "book marketing team meeting tomorrow at 3pm for 2 hours" {
		t.Errorf("OriginalTranscript = %q", cmd.OriginalTranscript)
	}
}

func TestParse_Gujarati(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t)
	cmd := p.Parse(context.Background(), intake.Input{
		Transcript: "Engineering કાલે બપોરે ૩ વાગ્યે ૨ કલાક માટે મીટીંગ",
		Language:   "gu-IN",
		Roster:     roster,
		Now:        now,
	})
	if cmd == nil {
		t.Fatal("Parse returned nil")
	}
	if cmd.TeamID != "t2" {
		t.Errorf("TeamID = %q, want t2", cmd.TeamID)
	}
	if want := time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC); cmd.Start == nil || !cmd.Start.Equal(want) {
		t.Errorf("Start = %v, want %v (normalized %q)", cmd.Start, want, cmd.NormalizedTranscript)
	}
	if want := time.Date(2026, 1, 15, 17, 0, 0, 0, time.UTC); cmd.End == nil || !cmd.End.Equal(want) {
		t.Errorf("End = %v, want %v", cmd.End, want)
	}
}

func TestParse_EmptyTranscript(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t)
	for _, tr := range []string{"", "   ", "\n\t"} {
		if cmd := p.Parse(context.Background(), intake.Input{Transcript: tr, Now: now}); cmd != nil {
			t.Errorf("Parse(%q) = %+v, want nil", tr, cmd)
		}
	}
}

func TestParse_NoTimeNoTeam(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t)
	cmd := p.Parse(context.Background(), intake.Input{
		Transcript: "Schedule a quarterly review",
		Roster:     roster,
		Now:        now,
	})
	if cmd == nil {
		t.Fatal("Parse returned nil")
	}
	if cmd.HasTime() || cmd.End != nil {
		t.Errorf("Start/End = %v/%v, want nil", cmd.Start, cmd.End)
	}
	if cmd.TeamID != "" {
		t.Errorf("TeamID = %q, want empty", cmd.TeamID)
	}
	if cmd.EventName != "quarterly review" {
		t.Errorf("EventName = %q, want %q", cmd.EventName, "quarterly review")
	}
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t)
	in := intake.Input{Transcript: "engineering sync friday for 3 days", Roster: roster, Now: now}
	a, b := p.Parse(context.Background(), in), p.Parse(context.Background(), in)
	if a.EventName != b.EventName || a.TeamID != b.TeamID || !a.Start.Equal(*b.Start) || !a.End.Equal(*b.End) || a.IsAllDay != b.IsAllDay {
		t.Errorf("Parse not idempotent: %+v vs %+v", a, b)
	}
	if !a.IsAllDay {
		t.Error("IsAllDay = false, want true")
	}
}

func TestParse_UsesClockWhenNowZero(t *testing.T) {
	t.Parallel()

	p := intake.New(intake.WithLocation(time.UTC), intake.WithClock(func() time.Time { return now }))
	cmd := p.Parse(context.Background(), intake.Input{Transcript: "tomorrow at 9am"})
	if want := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC); !cmd.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cmd.Start, want)
	}
}

func TestParse_ConvertsNowToLocation(t *testing.T) {
	t.Parallel()

	ist := time.FixedZone("IST", 5*3600+1800)
	p := intake.New(intake.WithLocation(ist))
	// 20:00 UTC on the 14th is already 01:30 on the 15th in IST.
	cmd := p.Parse(context.Background(), intake.Input{
		Transcript: "tomorrow at 10am",
		Now:        time.Date(2026, 1, 14, 20, 0, 0, 0, time.UTC),
	})
	if want := time.Date(2026, 1, 16, 10, 0, 0, 0, ist); !cmd.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", cmd.Start, want)
	}
}

func TestParse_RecordsMetrics(t *testing.T) {
	t.Parallel()

	p, reader := newParser(t)
	p.Parse(context.Background(), intake.Input{Transcript: "marketing tomorrow", Roster: roster, Now: now})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	for _, name := range []string{"voxbook.parse.duration", "voxbook.utterances"} {
		if !found[name] {
			t.Errorf("metric %q not recorded", name)
		}
	}
}

func TestEventName(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"book a meeting", "meeting"},
		{"Create an offsite", "offsite"},
		{"schedule   standup  tomorrow", "standup tomorrow"},
		{"book annual review", "annual review"},
		{"team lunch", "team lunch"},
		{"rebook the room", "rebook the room"},
	}
	for _, tt := range tests {
		if got := intake.EventName(tt.in); got != tt.want {
			t.Errorf("EventName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
