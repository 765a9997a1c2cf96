// Package intake turns one utterance into a structured booking command.
//
// [Parser.Parse] runs the whole pipeline: normalise the transcript with the
// session language's dictionary, extract the temporal range from the
// normalised text, resolve the team against the roster, and derive a
// best-effort event title from the raw transcript.
//
// The title heuristic only strips the matched team name and a leading filler
// verb ("book a", "schedule"). Date and time words stay in the title because
// offsets in normalised text do not map back onto the original transcript.
package intake

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/internal/temporal"
	"github.com/MrWong99/voxbook/internal/transcript"
	"github.com/MrWong99/voxbook/pkg/types"
)

// fillerRe matches the leading command verb of an utterance.
var fillerRe = regexp.MustCompile(`(?i)^\s*(?:schedule|book|create)\s+(?:(?:a|an)\s+)?`)

// Input is one utterance to parse.
type Input struct {
	// Transcript is the raw speech-recognition text.
	Transcript string

	// Language selects the dictionary. Unknown codes use the default language.
	Language string

	// Roster is the set of teams the utterance may name, in resolution order.
	Roster []team.Team

	// Now is the reference instant for relative dates. The zero value uses
	// the parser's clock.
	Now time.Time
}

// Option is a functional option for configuring a [Parser].
type Option func(*Parser)

// WithDictionaries sets the dictionary store. Default: the built-in
// dictionaries.
func WithDictionaries(s *dictionary.Store) Option {
	return func(p *Parser) {
		p.normalizer = transcript.NewNormalizer(s)
	}
}

// WithExtractor sets the temporal extractor. Default: [temporal.New] with
// default options.
func WithExtractor(e *temporal.Extractor) Option {
	return func(p *Parser) {
		p.extractor = e
	}
}

// WithLocation sets the zone every instant is resolved in. Default:
// [time.Local].
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock overrides the clock used when [Input.Now] is zero.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Parser) {
		p.metrics = m
	}
}

// Parser is the command parser. It holds no per-call state and is safe for
// concurrent use.
type Parser struct {
	normalizer *transcript.Normalizer
	extractor  *temporal.Extractor
	loc        *time.Location
	now        func() time.Time
	metrics    *observe.Metrics
}

// New returns a Parser configured with opts.
func New(opts ...Option) *Parser {
	p := &Parser{
		loc: time.Local,
		now: time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.normalizer == nil {
		p.normalizer = transcript.NewNormalizer(nil)
	}
	if p.extractor == nil {
		p.extractor = temporal.New()
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Dictionaries returns the store the parser normalises with.
func (p *Parser) Dictionaries() *dictionary.Store {
	return p.normalizer.Store()
}

// Location returns the zone instants are resolved in.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Now returns the reference instant used when [Input.Now] is zero.
func (p *Parser) Now() time.Time {
	return p.now()
}

// Parse processes one utterance. It returns nil for an empty or
// whitespace-only transcript and never fails otherwise: a nil Start means no
// date or time was recognised and an empty TeamID means no team matched.
func (p *Parser) Parse(ctx context.Context, in Input) *types.ParsedCommand {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil
	}

	ctx, span := observe.StartSpan(ctx, observe.SpanParse)
	defer span.End()
	start := time.Now()

	now := in.Now
	if now.IsZero() {
		now = p.now()
	}
	now = now.In(p.loc)

	dict := p.normalizer.Store().Get(in.Language)
	normalized := transcript.Normalize(in.Transcript, dict)
	tr := p.extractor.Extract(normalized, now)

	cmd := &types.ParsedCommand{
		Start:                tr.Start,
		End:                  tr.End,
		IsAllDay:             tr.IsAllDay,
		OriginalTranscript:   in.Transcript,
		NormalizedTranscript: normalized,
	}

	title := in.Transcript
	if t, ok := team.Resolve([]string{normalized, strings.ToLower(in.Transcript)}, in.Roster); ok {
		cmd.TeamID = t.ID
		title = team.StripFirst(title, t.Name)
	}
	cmd.EventName = EventName(title)

	span.SetAttributes(
		observe.KeyLanguage.String(dict.ID()),
		observe.KeyHasTime.Bool(cmd.HasTime()),
		observe.KeyTeamID.String(cmd.TeamID),
	)
	observe.Logger(ctx).Debug("intake: parsed utterance",
		"language", dict.ID(),
		"original", in.Transcript,
		"normalized", normalized,
		"has_time", cmd.HasTime(),
		"team_id", cmd.TeamID,
	)
	p.metrics.ParseDuration.Record(ctx, time.Since(start).Seconds())
	p.metrics.RecordUtterance(ctx, dict.ID(), cmd.HasTime(), cmd.TeamID != "")
	return cmd
}

// EventName strips a leading filler verb and collapses whitespace.
func EventName(s string) string {
	s = fillerRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
