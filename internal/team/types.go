// Package team holds the team roster and the rules for recognising a team
// inside a transcript.
//
// Resolution is a deliberate substring heuristic: the first roster team whose
// name appears (case-insensitively) in any transcript variant wins, in roster
// order, with no scoring. [Suggest] offers a phonetic near-miss hint for
// prompts but never resolves a team on its own.
package team

import (
	"errors"
	"strings"
)

// Team is a bookable team.
type Team struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name" validate:"required"`
}

// Validate checks a [Team] for required fields. All problems are reported
// together.
func Validate(t Team) error {
	var errs []error
	if strings.TrimSpace(t.ID) == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	return errors.Join(errs...)
}

// Filter returns the teams of roster whose IDs are in ids, preserving roster
// order. An empty ids returns roster unchanged.
func Filter(roster []Team, ids []string) []Team {
	if len(ids) == 0 {
		return roster
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Team, 0, len(ids))
	for _, t := range roster {
		if _, ok := want[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}
