package api

import (
	"context"
	"net/http"
	"time"

	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/types"
)

// ParseRequest is the body of POST /v1/parse.
type ParseRequest struct {
	Transcript string `json:"transcript" validate:"required,max=2000"`
	Language   string `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`

	// Roster overrides the configured team source.
	Roster []team.Team `json:"roster,omitempty" validate:"omitempty,dive"`

	// TeamIDs restricts the roster to these teams.
	TeamIDs []string `json:"team_ids,omitempty" validate:"omitempty,dive,required"`

	// Now overrides the reference instant.
	Now *time.Time `json:"now,omitempty"`

	// CheckConflicts also runs a conflict check when the parse yields a
	// team and a time.
	CheckConflicts bool `json:"check_conflicts,omitempty"`
}

// ParseResponse is the body of a successful POST /v1/parse.
type ParseResponse struct {
	Command  *types.ParsedCommand `json:"command"`
	TeamName string               `json:"team_name,omitempty"`
	Display  *Display             `json:"display,omitempty"`

	// NeedsTeam is set when the roster is non-empty and no team matched.
	NeedsTeam bool `json:"needs_team"`

	// NeedsTime is set when no date or time was recognised.
	NeedsTime bool `json:"needs_time"`

	Conflicts *ConflictResponse `json:"conflicts,omitempty"`
}

// Display holds the draft's times pre-formatted for the booking form.
type Display struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsPast    bool   `json:"is_past"`
}

// Parse handles POST /v1/parse.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	p := h.parser.Load()

	roster := req.Roster
	if len(roster) == 0 {
		var err error
		if roster, err = h.teams.List(ctx); err != nil {
			writeError(w, r, http.StatusBadGateway, ErrorResponse{Error: "team roster unavailable", Code: CodeUpstreamFailure})
			return
		}
	}
	roster = team.Filter(roster, req.TeamIDs)

	now := p.Now()
	if req.Now != nil {
		now = *req.Now
	}
	in := intake.Input{Transcript: req.Transcript, Language: req.Language, Roster: roster, Now: now}
	cmd := p.Parse(ctx, in)
	if cmd == nil {
		writeError(w, r, http.StatusUnprocessableEntity, ErrorResponse{Error: "transcript is empty", Code: CodeEmptyTranscript})
		return
	}

	resp := ParseResponse{
		Command:   cmd,
		NeedsTeam: cmd.TeamID == "" && len(roster) > 0,
		NeedsTime: !cmd.HasTime(),
	}
	for _, t := range roster {
		if t.ID == cmd.TeamID {
			resp.TeamName = t.Name
			break
		}
	}
	if cmd.HasTime() {
		resp.Display = display(*cmd.Start, *cmd.End, p.Location(), now)
	}

	if req.CheckConflicts && h.bookings != nil {
		if candidate, ok := types.CandidateFromCommand(*cmd); ok && candidate.TeamID != "" {
			res, err := h.check(ctx, candidate, nil)
			if err != nil {
				writeError(w, r, http.StatusBadGateway, ErrorResponse{Error: "booking snapshot unavailable", Code: CodeUpstreamFailure})
				return
			}
			resp.Conflicts = res
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func display(start, end time.Time, loc *time.Location, now time.Time) *Display {
	start, end = start.In(loc), end.In(loc)
	date := types.FormatISODate(start)
	return &Display{
		Date:      types.FormatDisplayDate(date),
		Weekday:   types.DayOfWeek(date),
		StartTime: start.Format(types.Clock12Layout),
		EndTime:   end.Format(types.Clock12Layout),
		IsPast:    types.IsPastDate(date, now.In(loc)),
	}
}

// check runs the detector against existing, or the store's snapshot for the
// candidate's team when existing is nil.
func (h *Handler) check(ctx context.Context, candidate types.BookingCandidate, existing []types.ExistingBooking) (*ConflictResponse, error) {
	if existing == nil {
		var err error
		if existing, err = h.bookings.ListByTeam(ctx, candidate.TeamID); err != nil {
			return nil, err
		}
	}
	d := h.detector.Load()
	res := d.Check(ctx, candidate, existing)
	return &ConflictResponse{Result: res, Message: conflict.FormatMessage(res.ConflictingBookings, d.Location())}, nil
}
