package mcptools_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/voxbook/internal/bookingstore"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/mcptools"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/types"
)

func connect(t *testing.T, bookings bookingstore.Store, metrics *observe.Metrics) *mcpsdk.ClientSession {
	t.Helper()
	parser := intake.New(intake.WithLocation(time.UTC))
	server, err := mcptools.NewServer(mcptools.Config{
		Parser:   func() *intake.Parser { return parser },
		Teams:    team.NewMemStore(team.Team{ID: "t1", Name: "Marketing"}, team.Team{ID: "t2", Name: "Engineering"}),
		Bookings: bookings,
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx := context.Background()
	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "voxbook-test", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// call invokes a tool and decodes its text result into out. It returns false
// when the tool reported an error.
func call(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any, out any) bool {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil || res.IsError {
		return false
	}
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), out); err != nil {
				t.Fatalf("decode %s result: %v (%s)", name, err, tc.Text)
			}
			return true
		}
	}
	t.Fatalf("%s returned no text content", name)
	return false
}

func TestListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := map[string]bool{}
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{mcptools.ToolParse, mcptools.ToolConflicts, mcptools.ToolLanguages} {
		if !got[name] {
			t.Errorf("tool %q not listed", name)
		}
	}
}

func TestParseTool(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	var out mcptools.ParseOutput
	ok := call(t, cs, mcptools.ToolParse, map[string]any{
		"transcript": "book marketing team meeting tomorrow at 3pm for 2 hours",
		"language":   "en-US",
		"now":        "2026-01-14T10:00:00Z",
	}, &out)
	if !ok {
		t.Fatal("parse tool reported an error")
	}
	if out.TeamID != "t1" || out.TeamName != "Marketing" {
		t.Errorf("team = %q (%q), want t1 (Marketing)", out.TeamID, out.TeamName)
	}
	if out.Start != "2026-01-15T15:00:00Z" || out.End != "2026-01-15T17:00:00Z" {
		t.Errorf("range = %s - %s", out.Start, out.End)
	}
	if out.NeedsTeam || out.NeedsTime {
		t.Errorf("needs_team=%v needs_time=%v, want both false", out.NeedsTeam, out.NeedsTime)
	}
}

func TestParseTool_TeamFilter(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	var out mcptools.ParseOutput
	ok := call(t, cs, mcptools.ToolParse, map[string]any{
		"transcript": "marketing sync",
		"team_ids":   []string{"t2"},
	}, &out)
	if !ok {
		t.Fatal("parse tool reported an error")
	}
	if out.TeamID != "" || !out.NeedsTeam || !out.NeedsTime {
		t.Errorf("got %+v, want no team and both needs flags", out)
	}
}

func TestParseTool_Errors(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "blank transcript", args: map[string]any{"transcript": "  "}},
		{name: "bad now", args: map[string]any{"transcript": "standup", "now": "tomorrow"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out mcptools.ParseOutput
			if call(t, cs, mcptools.ToolParse, tc.args, &out) {
				t.Errorf("call succeeded with %+v, want tool error", out)
			}
		})
	}
}

func TestConflictsTool(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	var out mcptools.ConflictsOutput
	ok := call(t, cs, mcptools.ToolConflicts, map[string]any{
		"candidate": map[string]any{"team_id": "t1", "start": "2026-01-15T09:15:00Z", "end": "2026-01-15T09:45:00Z"},
		"existing": []map[string]any{
			{"id": "b1", "team_id": "t1", "event_name": "Standup", "date": "2026-01-15", "start_time": "09:00", "end_time": "09:30"},
			{"id": "b2", "team_id": "t1", "event_name": "Late", "start": "2026-01-15T09:45:00Z", "end": "2026-01-15T10:00:00Z"},
			{"id": "b3", "team_id": "t2", "event_name": "Other", "date": "2026-01-15", "start_time": "09:00", "end_time": "10:00"},
		},
	}, &out)
	if !ok {
		t.Fatal("conflicts tool reported an error")
	}
	if !out.HasConflict || len(out.Conflicts) != 1 || out.Conflicts[0].ID != "b1" {
		t.Fatalf("got %+v, want a single conflict with b1", out)
	}
	if want := `This booking conflicts with: "Standup" (9:00 AM - 9:30 AM)`; out.Message != want {
		t.Errorf("message = %q, want %q", out.Message, want)
	}
}

func TestConflictsTool_Store(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	store := bookingstore.NewMemStore()
	store.Add(types.ExistingBooking{
		BookingCandidate: types.BookingCandidate{ID: "b1", TeamID: "t1", Schedule: types.Schedule{Start: &start, End: &end}},
		EventName:        "Review",
	})

	cs := connect(t, store, nil)
	var out mcptools.ConflictsOutput
	ok := call(t, cs, mcptools.ToolConflicts, map[string]any{
		"candidate": map[string]any{"team_id": "t1", "start": "2026-01-15T14:30:00Z", "end": "2026-01-15T15:30:00Z"},
	}, &out)
	if !ok {
		t.Fatal("conflicts tool reported an error")
	}
	if !out.HasConflict || out.Conflicts[0].Start != "2026-01-15T14:00:00Z" {
		t.Errorf("got %+v, want conflict with the stored booking", out)
	}
}

func TestConflictsTool_Errors(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "no team", args: map[string]any{"candidate": map[string]any{"start": "2026-01-15T14:00:00Z", "end": "2026-01-15T15:00:00Z"}, "existing": []any{}}},
		{name: "unresolvable candidate", args: map[string]any{"candidate": map[string]any{"team_id": "t1", "date": "2026-01-15"}, "existing": []any{}}},
		{name: "bad instant", args: map[string]any{"candidate": map[string]any{"team_id": "t1", "start": "noon", "end": "later"}, "existing": []any{}}},
		{name: "no booking source", args: map[string]any{"candidate": map[string]any{"team_id": "t1", "start": "2026-01-15T14:00:00Z", "end": "2026-01-15T15:00:00Z"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out mcptools.ConflictsOutput
			if call(t, cs, mcptools.ToolConflicts, tc.args, &out) {
				t.Errorf("call succeeded with %+v, want tool error", out)
			}
		})
	}
}

func TestLanguagesTool(t *testing.T) {
	t.Parallel()

	cs := connect(t, nil, nil)
	var out mcptools.LanguagesOutput
	if !call(t, cs, mcptools.ToolLanguages, map[string]any{}, &out) {
		t.Fatal("languages tool reported an error")
	}
	if out.Default != "en-US" {
		t.Errorf("default = %q, want en-US", out.Default)
	}
	codes := map[string]bool{}
	for _, l := range out.Languages {
		codes[l.Code] = true
	}
	for _, want := range []string{"en-US", "gu-IN"} {
		if !codes[want] {
			t.Errorf("language %q missing from %+v", want, out.Languages)
		}
	}
}

func TestToolCallMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	metrics, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	cs := connect(t, nil, metrics)
	var out mcptools.LanguagesOutput
	call(t, cs, mcptools.ToolLanguages, map[string]any{}, &out)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "voxbook.tool.calls" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
				t.Errorf("tool calls = %+v, want one data point of 1", m.Data)
			}
			return
		}
	}
	t.Error("voxbook.tool.calls not recorded")
}

func TestNewServer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := mcptools.NewServer(mcptools.Config{}); err == nil {
		t.Error("NewServer with empty config succeeded, want error")
	}
}
