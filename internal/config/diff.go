package config

import (
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs. The server applies
// the reloadable sections in place; RestartRequired names sections that
// changed but only take effect on restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// IntakeChanged covers intake settings and dictionary paths; both are
	// applied by rebuilding the parser.
	IntakeChanged bool

	VoiceChanged bool

	TeamsChanged bool
	TeamsAdded   []string
	TeamsRemoved []string

	RestartRequired []string
}

// Changed reports whether any section differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.IntakeChanged || d.VoiceChanged || d.TeamsChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.IntakeChanged = !reflect.DeepEqual(old.Intake, new.Intake) ||
		!slices.Equal(old.Dictionaries.Paths, new.Dictionaries.Paths)
	d.VoiceChanged = !reflect.DeepEqual(old.Voice, new.Voice)

	oldTeams := make(map[string]string, len(old.Teams))
	for _, t := range old.Teams {
		oldTeams[t.ID] = t.Name
	}
	newTeams := make(map[string]string, len(new.Teams))
	for _, t := range new.Teams {
		newTeams[t.ID] = t.Name
		if _, ok := oldTeams[t.ID]; !ok {
			d.TeamsAdded = append(d.TeamsAdded, t.ID)
		}
	}
	for _, t := range old.Teams {
		if _, ok := newTeams[t.ID]; !ok {
			d.TeamsRemoved = append(d.TeamsRemoved, t.ID)
		}
	}
	// Renames and reorders also change resolution.
	d.TeamsChanged = !slices.Equal(old.Teams, new.Teams)

	oldServer, newServer := old.Server, new.Server
	oldServer.LogLevel, newServer.LogLevel = "", ""
	if !reflect.DeepEqual(oldServer, newServer) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !reflect.DeepEqual(old.Storage, new.Storage) {
		d.RestartRequired = append(d.RestartRequired, "storage")
	}
	if old.MCP != new.MCP {
		d.RestartRequired = append(d.RestartRequired, "mcp")
	}
	return d
}
