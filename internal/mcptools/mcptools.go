// Package mcptools exposes the intake pipeline and the conflict detector as
// Model Context Protocol tools, so assistants can draft bookings the same way
// the booking form does.
//
// Three tools are registered by [NewServer]:
//   - "parse_booking_utterance" parses an utterance into a booking draft.
//   - "check_booking_conflicts" checks a candidate against existing bookings.
//   - "list_booking_languages" lists the dictionaries the parser knows.
//
// Instants cross the tool boundary as RFC 3339 strings.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/voxbook/internal/bookingstore"
	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/types"
)

// Tool names.
const (
	ToolParse     = "parse_booking_utterance"
	ToolConflicts = "check_booking_conflicts"
	ToolLanguages = "list_booking_languages"
)

// Config wires the tools to the pipeline.
type Config struct {
	// Name and Version identify the server during the MCP handshake.
	Name    string
	Version string

	// Parser returns the current parser. Required.
	Parser func() *intake.Parser

	// Detector returns the current detector. Default: a detector in the
	// parser's location.
	Detector func() *conflict.Detector

	// Teams is the roster source. Required.
	Teams team.Store

	// Bookings supplies existing bookings when a conflict call carries none.
	Bookings bookingstore.Store

	Metrics *observe.Metrics
}

type tools struct {
	cfg Config
}

// NewServer returns an MCP server with the booking tools registered.
func NewServer(cfg Config) (*mcpsdk.Server, error) {
	var errs []error
	if cfg.Parser == nil {
		errs = append(errs, errors.New("mcptools: parser is required"))
	}
	if cfg.Teams == nil {
		errs = append(errs, errors.New("mcptools: team store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "voxbook"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Detector == nil {
		cfg.Detector = func() *conflict.Detector {
			return conflict.New(conflict.WithLocation(cfg.Parser().Location()), conflict.WithMetrics(cfg.Metrics))
		}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}

	tl := &tools{cfg: cfg}
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolParse,
		Description: "Parse a spoken booking request into an event name, a start/end time and a team. Supports English and Gujarati transcripts out of the box.",
	}, instrument(tl, ToolParse, tl.parse))
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolConflicts,
		Description: "Check whether a candidate booking overlaps existing bookings of the same team. Touching bookings do not conflict.",
	}, instrument(tl, ToolConflicts, tl.conflicts))
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolLanguages,
		Description: "List the languages the booking parser has dictionaries for.",
	}, instrument(tl, ToolLanguages, tl.languages))
	return server, nil
}

// Handler serves server over the streamable HTTP transport.
func Handler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return server }, nil)
}

func instrument[In, Out any](tl *tools, name string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, in)
		status := "ok"
		if err != nil {
			status = "error"
		}
		tl.cfg.Metrics.RecordToolCall(ctx, name, status)
		return res, out, err
	}
}

// ParseInput is the argument of [ToolParse].
type ParseInput struct {
	Transcript string   `json:"transcript" jsonschema:"the speech-recognition text of the request"`
	Language   string   `json:"language,omitempty" jsonschema:"BCP 47 language code of the transcript, e.g. en-US or gu-IN"`
	TeamIDs    []string `json:"team_ids,omitempty" jsonschema:"restrict team matching to these team IDs"`
	Now        string   `json:"now,omitempty" jsonschema:"RFC 3339 reference instant for relative dates; defaults to the server clock"`
}

// ParseOutput is the result of [ToolParse].
type ParseOutput struct {
	EventName            string `json:"event_name"`
	Start                string `json:"start,omitempty"`
	End                  string `json:"end,omitempty"`
	IsAllDay             bool   `json:"is_all_day"`
	TeamID               string `json:"team_id,omitempty"`
	TeamName             string `json:"team_name,omitempty"`
	NormalizedTranscript string `json:"normalized_transcript"`
	NeedsTeam            bool   `json:"needs_team"`
	NeedsTime            bool   `json:"needs_time"`
}

func (tl *tools) parse(ctx context.Context, _ *mcpsdk.CallToolRequest, in ParseInput) (*mcpsdk.CallToolResult, ParseOutput, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, ParseOutput{}, errors.New("transcript must not be empty")
	}
	input := intake.Input{Transcript: in.Transcript, Language: in.Language}
	if in.Now != "" {
		now, err := time.Parse(time.RFC3339, in.Now)
		if err != nil {
			return nil, ParseOutput{}, fmt.Errorf("now: %w", err)
		}
		input.Now = now
	}
	roster, err := tl.cfg.Teams.List(ctx)
	if err != nil {
		return nil, ParseOutput{}, fmt.Errorf("team roster: %w", err)
	}
	input.Roster = team.Filter(roster, in.TeamIDs)

	cmd := tl.cfg.Parser().Parse(ctx, input)
	out := ParseOutput{
		EventName:            cmd.EventName,
		IsAllDay:             cmd.IsAllDay,
		TeamID:               cmd.TeamID,
		NormalizedTranscript: cmd.NormalizedTranscript,
		NeedsTeam:            cmd.TeamID == "" && len(input.Roster) > 0,
		NeedsTime:            !cmd.HasTime(),
	}
	if cmd.HasTime() {
		out.Start = cmd.Start.Format(time.RFC3339)
		out.End = cmd.End.Format(time.RFC3339)
	}
	for _, t := range input.Roster {
		if t.ID == cmd.TeamID {
			out.TeamName = t.Name
			break
		}
	}
	return nil, out, nil
}

// Booking is a booking as exchanged with [ToolConflicts]. Either Start and
// End or the legacy Date, StartTime and EndTime triple must be set.
type Booking struct {
	ID         string `json:"id,omitempty"`
	TeamID     string `json:"team_id"`
	EventName  string `json:"event_name,omitempty"`
	Start      string `json:"start,omitempty" jsonschema:"RFC 3339 start instant"`
	End        string `json:"end,omitempty" jsonschema:"RFC 3339 end instant"`
	Date       string `json:"date,omitempty" jsonschema:"legacy YYYY-MM-DD date"`
	StartTime  string `json:"start_time,omitempty" jsonschema:"legacy HH:MM start time"`
	EndTime    string `json:"end_time,omitempty" jsonschema:"legacy HH:MM end time"`
	IsWholeDay bool   `json:"is_whole_day,omitempty"`
}

// ConflictsInput is the argument of [ToolConflicts].
type ConflictsInput struct {
	Candidate Booking   `json:"candidate"`
	Existing  []Booking `json:"existing,omitempty" jsonschema:"bookings to check against; defaults to the stored bookings of the candidate's team"`
}

// ConflictsOutput is the result of [ToolConflicts].
type ConflictsOutput struct {
	HasConflict bool      `json:"has_conflict"`
	Conflicts   []Booking `json:"conflicts"`
	Message     string    `json:"message,omitempty"`
}

func (tl *tools) conflicts(ctx context.Context, _ *mcpsdk.CallToolRequest, in ConflictsInput) (*mcpsdk.CallToolResult, ConflictsOutput, error) {
	if in.Candidate.TeamID == "" {
		return nil, ConflictsOutput{}, errors.New("candidate.team_id must not be empty")
	}
	candidate, err := in.Candidate.existing()
	if err != nil {
		return nil, ConflictsOutput{}, fmt.Errorf("candidate: %w", err)
	}
	d := tl.cfg.Detector()
	if _, err := candidate.Range(d.Location()); err != nil {
		return nil, ConflictsOutput{}, fmt.Errorf("candidate: %w", err)
	}

	var existing []types.ExistingBooking
	switch {
	case in.Existing != nil:
		existing = make([]types.ExistingBooking, 0, len(in.Existing))
		for i, b := range in.Existing {
			eb, err := b.existing()
			if err != nil {
				return nil, ConflictsOutput{}, fmt.Errorf("existing[%d]: %w", i, err)
			}
			existing = append(existing, eb)
		}
	case tl.cfg.Bookings != nil:
		if existing, err = tl.cfg.Bookings.ListByTeam(ctx, candidate.TeamID); err != nil {
			return nil, ConflictsOutput{}, fmt.Errorf("bookings: %w", err)
		}
	default:
		return nil, ConflictsOutput{}, errors.New("no existing bookings given and no booking store configured")
	}

	res := d.Check(ctx, candidate.BookingCandidate, existing)
	out := ConflictsOutput{
		HasConflict: res.HasConflict,
		Conflicts:   make([]Booking, 0, len(res.ConflictingBookings)),
		Message:     d.FormatMessage(res.ConflictingBookings),
	}
	for _, b := range res.ConflictingBookings {
		out.Conflicts = append(out.Conflicts, fromExisting(b))
	}
	return nil, out, nil
}

func (b Booking) existing() (types.ExistingBooking, error) {
	eb := types.ExistingBooking{
		BookingCandidate: types.BookingCandidate{
			ID:     b.ID,
			TeamID: b.TeamID,
			Schedule: types.Schedule{
				Date:      b.Date,
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
			},
		},
		EventName:  b.EventName,
		IsWholeDay: b.IsWholeDay,
	}
	if b.Start != "" {
		t, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return eb, fmt.Errorf("start: %w", err)
		}
		eb.Schedule.Start = &t
	}
	if b.End != "" {
		t, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return eb, fmt.Errorf("end: %w", err)
		}
		eb.Schedule.End = &t
	}
	return eb, nil
}

func fromExisting(eb types.ExistingBooking) Booking {
	b := Booking{
		ID:         eb.ID,
		TeamID:     eb.TeamID,
		EventName:  eb.EventName,
		Date:       eb.Date,
		StartTime:  eb.StartTime,
		EndTime:    eb.EndTime,
		IsWholeDay: eb.IsWholeDay,
	}
	if eb.Schedule.Start != nil {
		b.Start = eb.Schedule.Start.Format(time.RFC3339)
	}
	if eb.Schedule.End != nil {
		b.End = eb.Schedule.End.Format(time.RFC3339)
	}
	return b
}

// LanguagesInput is the (empty) argument of [ToolLanguages].
type LanguagesInput struct{}

// Language describes one dictionary.
type Language struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// LanguagesOutput is the result of [ToolLanguages].
type LanguagesOutput struct {
	Default   string     `json:"default"`
	Languages []Language `json:"languages"`
}

func (tl *tools) languages(_ context.Context, _ *mcpsdk.CallToolRequest, _ LanguagesInput) (*mcpsdk.CallToolResult, LanguagesOutput, error) {
	store := tl.cfg.Parser().Dictionaries()
	out := LanguagesOutput{Default: store.DefaultLanguage()}
	for _, info := range store.Languages() {
		out.Languages = append(out.Languages, Language{Code: info.ID, DisplayName: info.DisplayName})
	}
	return nil, out, nil
}
