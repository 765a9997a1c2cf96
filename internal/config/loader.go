package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/voxbook/internal/team"
)

// Environment variables that override file values in [ApplyEnv].
const (
	EnvPostgresDSN  = "VOXBOOK_POSTGRES_DSN"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// ValidTranscriberNames lists the transcribers shipped with voxbook. Other
// names are accepted with a warning so third-party factories can be
// registered.
var ValidTranscriberNames = []string{"openai"}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables read through
// lookup (typically [os.LookupEnv]).
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPostgresDSN); ok && v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v, ok := lookup(EnvOpenAIAPIKey); ok && v != "" {
		for _, e := range cfg.Voice.transcribers() {
			if e.Name == "openai" {
				e.APIKey = v
			}
		}
	}
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if lf := cfg.Server.LogFile; lf != nil {
		if lf.Path == "" {
			errs = append(errs, errors.New("server.log_file.path is required when log_file is set"))
		}
		if lf.MaxSizeMB < 0 || lf.MaxBackups < 0 || lf.MaxAgeDays < 0 {
			errs = append(errs, errors.New("server.log_file rotation limits must not be negative"))
		}
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Intake
	if code := cfg.Intake.DefaultLanguage; code != "" {
		if _, err := language.Parse(code); err != nil {
			errs = append(errs, fmt.Errorf("intake.default_language %q is not a BCP 47 tag: %w", code, err))
		}
	}
	if _, err := cfg.Location(); err != nil {
		errs = append(errs, err)
	}
	if h := cfg.Intake.DefaultStartHour; h != nil && (*h < 0 || *h > 23) {
		errs = append(errs, fmt.Errorf("intake.default_start_hour %d is out of range [0, 23]", *h))
	}
	errs = appendNegative(errs, "intake.default_duration", cfg.Intake.DefaultDuration)

	// Dictionaries
	for i, p := range cfg.Dictionaries.Paths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("dictionaries.paths[%d] is empty", i))
		}
	}

	if r := cfg.Server.TraceSampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("server.trace_sample_ratio %v must be within [0, 1]", r))
	}

	// Voice
	errs = appendNegative(errs, "voice.relisten_delay", cfg.Voice.RelistenDelay)
	errs = appendNegative(errs, "voice.close_delay", cfg.Voice.CloseDelay)
	if n := cfg.Voice.MaxTeamRetries; n != nil && *n < 0 {
		errs = append(errs, fmt.Errorf("voice.max_team_retries %d must not be negative", *n))
	}
	for _, e := range cfg.Voice.transcribers() {
		if e.Name != "" && !slices.Contains(ValidTranscriberNames, e.Name) {
			slog.Warn("unknown transcriber name; may be a typo or third-party provider",
				"name", e.Name,
				"known", ValidTranscriberNames,
			)
		}
	}
	for i, e := range cfg.Voice.TranscriberFallbacks {
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("voice.transcriber_fallbacks[%d].name is required", i))
		}
	}
	if len(cfg.Voice.TranscriberFallbacks) > 0 && cfg.Voice.Transcriber.Name == "" {
		errs = append(errs, errors.New("voice.transcriber_fallbacks requires voice.transcriber"))
	}
	if cfg.Voice.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("voice.breaker.max_failures %d must not be negative", cfg.Voice.Breaker.MaxFailures))
	}
	errs = appendNegative(errs, "voice.breaker.cool_down", cfg.Voice.Breaker.CoolDown)

	// Teams
	seen := make(map[string]int, len(cfg.Teams))
	for i, t := range cfg.Teams {
		prefix := fmt.Sprintf("teams[%d]", i)
		if err := team.Validate(t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
		if prev, ok := seen[t.ID]; ok && t.ID != "" {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of teams[%d]", prefix, t.ID, prev))
		}
		seen[t.ID] = i
	}

	// Storage
	if cfg.Storage.PostgresDSN != "" {
		if cfg.Storage.BookingsFile != "" {
			slog.Warn("storage.bookings_file is ignored when postgres_dsn is set")
		}
		if len(cfg.Teams) > 0 {
			slog.Warn("static teams are ignored when postgres_dsn is set; the roster is read from the database")
		}
	} else if len(cfg.Teams) == 0 {
		slog.Warn("no team roster configured; voice sessions will not ask for a team")
	}
	errs = appendNegative(errs, "storage.roster_cache_ttl", cfg.Storage.RosterCacheTTL)

	// MCP
	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path %q must start with /", cfg.MCP.Path))
	}

	return errors.Join(errs...)
}

func appendNegative(errs []error, field string, d time.Duration) []error {
	if d < 0 {
		return append(errs, fmt.Errorf("%s %s must not be negative", field, d))
	}
	return errs
}
