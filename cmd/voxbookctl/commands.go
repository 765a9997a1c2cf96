package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/voxbook/internal/app"
	"github.com/MrWong99/voxbook/internal/bookingstore"
	"github.com/MrWong99/voxbook/internal/config"
	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/types"
)

// CLI is the command tree.
type CLI struct {
	Version kong.VersionFlag `help:"Print the version and exit."`

	Config       string   `help:"Server config file; its intake, dictionaries and teams are used." type:"existingfile"`
	Timezone     string   `help:"IANA zone bookings are resolved in (overrides the config)." placeholder:"ZONE"`
	Dictionaries []string `name:"dictionary" help:"Extra dictionary YAML files." type:"existingfile"`
	JSON         bool     `help:"Print machine-readable JSON."`

	Parse     ParseCmd     `cmd:"" help:"Parse an utterance into a booking draft."`
	Conflicts ConflictsCmd `cmd:"" help:"Check a candidate booking against existing bookings."`
	Languages LanguagesCmd `cmd:"" help:"List the available dictionaries."`
}

// Context is passed to every command's Run method.
type Context struct {
	Out io.Writer
}

// pipeline builds the config the flags describe and the pipeline for it.
func (c *CLI) pipeline() (*config.Config, *intake.Parser, *conflict.Detector, error) {
	cfg := &config.Config{}
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	}
	if c.Timezone != "" {
		cfg.Intake.Timezone = c.Timezone
	}
	cfg.Dictionaries.Paths = append(cfg.Dictionaries.Paths, c.Dictionaries...)
	cfg.ApplyDefaults()
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, err
	}
	p, d, err := app.BuildPipeline(cfg, observe.DefaultMetrics())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, p, d, nil
}

func (c *CLI) print(out io.Writer, v any, text func(io.Writer) error) error {
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(out)
}

// ── parse ─────────────────────────────────────────────────────────────────────

// ParseCmd parses one utterance.
type ParseCmd struct {
	Utterance string   `arg:"" help:"The transcript to parse."`
	Lang      string   `short:"l" help:"Dictionary language code." default:"en-US"`
	Roster    string   `help:"YAML roster file (overrides config teams)." type:"existingfile"`
	Teams     []string `help:"Restrict the roster to these team IDs."`
	Now       string   `help:"RFC 3339 reference instant (default: now)." placeholder:"TIME"`
}

// ParseResult is the JSON output of the parse command.
type ParseResult struct {
	Command   *types.ParsedCommand `json:"command"`
	TeamName  string               `json:"team_name,omitempty"`
	NeedsTeam bool                 `json:"needs_team"`
	NeedsTime bool                 `json:"needs_time"`
}

func (c *ParseCmd) Run(cli *CLI, ctx *Context) error {
	cfg, p, _, err := cli.pipeline()
	if err != nil {
		return err
	}

	roster := cfg.Teams
	if c.Roster != "" {
		if roster, err = team.LoadRosterFile(c.Roster); err != nil {
			return err
		}
	}
	roster = team.Filter(roster, c.Teams)

	in := intake.Input{Transcript: c.Utterance, Language: c.Lang, Roster: roster}
	if c.Now != "" {
		if in.Now, err = time.Parse(time.RFC3339, c.Now); err != nil {
			return fmt.Errorf("--now: %w", err)
		}
	}
	cmd := p.Parse(context.Background(), in)
	if cmd == nil {
		return errors.New("utterance is empty")
	}

	res := ParseResult{
		Command:   cmd,
		NeedsTeam: cmd.TeamID == "" && len(roster) > 0,
		NeedsTime: !cmd.HasTime(),
	}
	for _, t := range roster {
		if t.ID == cmd.TeamID {
			res.TeamName = t.Name
			break
		}
	}

	return cli.print(ctx.Out, res, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Event:\t%s\n", cmd.EventName)
		fmt.Fprintf(tw, "Normalized:\t%s\n", cmd.NormalizedTranscript)
		if cmd.HasTime() {
			start, end := cmd.Start.In(p.Location()), cmd.End.In(p.Location())
			fmt.Fprintf(tw, "Date:\t%s (%s)\n", types.FormatDisplayDate(types.FormatISODate(start)), start.Weekday())
			if cmd.IsAllDay {
				fmt.Fprintf(tw, "Time:\tWhole Day until %s\n", types.FormatDisplayDate(types.FormatISODate(end)))
			} else {
				fmt.Fprintf(tw, "Time:\t%s - %s\n", start.Format(types.Clock12Layout), end.Format(types.Clock12Layout))
			}
		} else {
			fmt.Fprintf(tw, "Time:\t(not recognised)\n")
		}
		switch {
		case res.TeamName != "":
			fmt.Fprintf(tw, "Team:\t%s (%s)\n", res.TeamName, cmd.TeamID)
		case res.NeedsTeam:
			fmt.Fprintf(tw, "Team:\t(not recognised)\n")
		}
		return tw.Flush()
	})
}

// ── conflicts ─────────────────────────────────────────────────────────────────

// ConflictsCmd checks a candidate against a booking snapshot.
type ConflictsCmd struct {
	Candidate string `help:"YAML file holding the candidate booking." type:"existingfile" required:""`
	Existing  string `help:"YAML booking snapshot (a bookings: list)." type:"existingfile" required:""`
}

// ConflictsResult is the JSON output of the conflicts command.
type ConflictsResult struct {
	conflict.Result
	Message string `json:"message,omitempty"`
}

func (c *ConflictsCmd) Run(cli *CLI, ctx *Context) error {
	_, _, d, err := cli.pipeline()
	if err != nil {
		return err
	}
	candidate, err := loadCandidate(c.Candidate)
	if err != nil {
		return err
	}
	if _, err := candidate.Range(d.Location()); err != nil {
		return fmt.Errorf("candidate: %w", err)
	}
	existing, err := bookingstore.LoadBookingsFile(c.Existing)
	if err != nil {
		return err
	}

	res := d.Check(context.Background(), candidate, existing)
	out := ConflictsResult{Result: res, Message: d.FormatMessage(res.ConflictingBookings)}
	return cli.print(ctx.Out, out, func(w io.Writer) error {
		if !res.HasConflict {
			_, err := fmt.Fprintln(w, "No conflicts.")
			return err
		}
		_, err := fmt.Fprintln(w, out.Message)
		return err
	})
}

func loadCandidate(path string) (types.BookingCandidate, error) {
	var c types.BookingCandidate
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("candidate %q: %w", path, err)
	}
	if c.TeamID == "" {
		return c, fmt.Errorf("candidate %q: team_id is required", path)
	}
	return c, nil
}

// ── languages ─────────────────────────────────────────────────────────────────

// LanguagesCmd lists dictionaries.
type LanguagesCmd struct{}

// LanguagesResult is the JSON output of the languages command.
type LanguagesResult struct {
	Default   string            `json:"default"`
	Languages []dictionary.Info `json:"languages"`
}

func (c *LanguagesCmd) Run(cli *CLI, ctx *Context) error {
	_, p, _, err := cli.pipeline()
	if err != nil {
		return err
	}
	store := p.Dictionaries()
	res := LanguagesResult{Default: store.DefaultLanguage(), Languages: store.Languages()}
	return cli.print(ctx.Out, res, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, l := range res.Languages {
			marker := ""
			if l.ID == res.Default {
				marker = "(default)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.DisplayName, marker)
		}
		return tw.Flush()
	})
}
