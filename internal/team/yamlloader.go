package team

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RosterFile is the top-level structure of a roster YAML file.
//
// Example:
//
//	teams:
//	  - id: t1
//	    name: Marketing
//	  - id: t2
//	    name: Engineering
type RosterFile struct {
	Teams []Team `yaml:"teams"`
}

// LoadRosterFile reads and validates a roster YAML file from disk.
func LoadRosterFile(path string) ([]Team, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("team: open roster file %q: %w", path, err)
	}
	defer f.Close()

	teams, err := LoadRosterFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("team: parse roster file %q: %w", path, err)
	}
	return teams, nil
}

// LoadRosterFromReader parses roster YAML from an [io.Reader]. Every team is
// validated and duplicate IDs are rejected; all problems are reported
// together.
func LoadRosterFromReader(r io.Reader) ([]Team, error) {
	var rf RosterFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("team: decode roster yaml: %w", err)
	}
	if err := ValidateRoster(rf.Teams); err != nil {
		return nil, err
	}
	return rf.Teams, nil
}

// ValidateRoster validates every team and checks IDs are unique.
func ValidateRoster(teams []Team) error {
	var errs []error
	seen := make(map[string]struct{}, len(teams))
	for i, t := range teams {
		if err := Validate(t); err != nil {
			errs = append(errs, fmt.Errorf("teams[%d]: %w", i, err))
			continue
		}
		if _, dup := seen[t.ID]; dup {
			errs = append(errs, fmt.Errorf("teams[%d]: %w: %q", i, ErrDuplicateID, t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	return errors.Join(errs...)
}
