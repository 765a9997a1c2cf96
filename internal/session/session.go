// Package session implements the turn-based voice booking dialogue.
//
// A [Session] listens for one utterance, parses it, and asks for the team
// when the utterance named none. Exactly one capture is in flight at a time.
// [Session.Close] cancels the in-flight capture and returns only once the
// dialogue goroutine has stopped.
//
//	IDLE -> LISTENING -> PROCESSING -> SUCCESS -> IDLE
//	                          |
//	                          +-> ASKING_TEAM -> LISTENING -> PROCESSING -> ...
//
// Any capture failure moves the session to ERROR, where it stays until the
// caller closes it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/internal/transcript"
	"github.com/MrWong99/voxbook/pkg/provider/stt"
	"github.com/MrWong99/voxbook/pkg/provider/tts"
	"github.com/MrWong99/voxbook/pkg/types"
)

// Default dialogue timings.
const (
	DefaultRelistenDelay  = 2 * time.Second
	DefaultCloseDelay     = 1500 * time.Millisecond
	DefaultMaxTeamRetries = 3
)

var (
	// ErrBusy is returned by Run while another Run is active.
	ErrBusy = errors.New("session: capture already in progress")

	// ErrClosed is returned by Run when Close interrupted it.
	ErrClosed = errors.New("session: closed")

	// ErrFailed is returned by Run when the session is in the Error state.
	// Close resets it.
	ErrFailed = errors.New("session: in error state; close before reopening")

	// ErrTeamUnresolved is returned when every team answer failed to match.
	ErrTeamUnresolved = errors.New("session: team could not be resolved")
)

// Event describes one state transition.
type Event struct {
	SessionID string
	State     State

	// Message is the localized prompt for the state, or the error text in
	// the Error state.
	Message string

	// Transcript is the recognized text that led to a Processing state.
	Transcript string

	// Suggestion is a near-miss team name offered after a failed answer.
	Suggestion string

	// Command is set on Success.
	Command *types.ParsedCommand

	// Err is set on Error.
	Err error
}

// Config configures a [Session].
type Config struct {
	// Capturer produces transcripts. Required.
	Capturer stt.Capturer

	// Parser runs the intake pipeline. Required.
	Parser *intake.Parser

	// Speaker speaks prompts. Default: [tts.Discard].
	Speaker tts.Speaker

	// Language is the BCP-47 dictionary and capture language. Default: the
	// parser's default dictionary language.
	Language string

	// Roster lists the teams the user may book for.
	Roster []team.Team

	// RelistenDelay is the wait between a spoken team prompt and the next
	// capture. Defaults to 2s if zero.
	RelistenDelay time.Duration

	// CloseDelay is the wait between Success and the return to Idle.
	// Defaults to 1.5s if zero.
	CloseDelay time.Duration

	// MaxTeamRetries bounds the failed team answers before the session
	// gives up. Zero means unbounded.
	MaxTeamRetries int

	// OnEvent receives every transition synchronously. It must not call
	// Close.
	OnEvent func(Event)

	// Sleep waits for d or until ctx is done. Default: a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error

	// Metrics records session metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Session is one voice booking dialogue. All methods are safe for
// concurrent use.
type Session struct {
	id      string
	cfg     Config
	lang    string
	metrics *observe.Metrics

	mu      sync.Mutex
	state   State
	running bool
	closing bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New validates cfg and returns an idle session.
func New(cfg Config) (*Session, error) {
	var errs []error
	if cfg.Capturer == nil {
		errs = append(errs, errors.New("session: capturer is required"))
	}
	if cfg.Parser == nil {
		errs = append(errs, errors.New("session: parser is required"))
	}
	if cfg.MaxTeamRetries < 0 {
		errs = append(errs, fmt.Errorf("session: max team retries must be >= 0, got %d", cfg.MaxTeamRetries))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.Speaker == nil {
		cfg.Speaker = tts.Discard
	}
	if cfg.RelistenDelay <= 0 {
		cfg.RelistenDelay = DefaultRelistenDelay
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = DefaultCloseDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}

	lang := cfg.Language
	if _, ok := cfg.Parser.Dictionaries().Lookup(lang); !ok {
		lang = cfg.Parser.Dictionaries().DefaultLanguage()
	}

	return &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		lang:    lang,
		metrics: m,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Language returns the resolved dialogue language.
func (s *Session) Language() string { return s.lang }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes one dialogue from LISTENING to SUCCESS or ERROR and returns
// the parsed command. It blocks until the dialogue finishes, Close is
// called, or ctx is cancelled.
func (s *Session) Run(ctx context.Context) (*types.ParsedCommand, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.state == Error {
		s.mu.Unlock()
		return nil, ErrFailed
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.closing = false
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.metrics.ActiveSessions.Add(ctx, 1)
	runCtx = observe.WithSessionID(runCtx, s.id)
	runCtx, span := observe.StartSpan(runCtx, observe.SpanSession,
		observe.KeySessionID.String(s.id),
		observe.KeyLanguage.String(s.lang),
	)

	cmd, err := s.run(runCtx)

	cancel()
	s.mu.Lock()
	closed := s.closing
	s.running = false
	s.cancel = nil
	close(s.done)
	s.mu.Unlock()
	s.metrics.ActiveSessions.Add(ctx, -1)

	outcome := "error"
	switch {
	case err == nil:
		outcome = "success"
	case closed:
		outcome = "closed"
		err, cmd = ErrClosed, nil
	case ctx.Err() != nil:
		outcome = "cancelled"
	}
	s.metrics.RecordSessionOutcome(ctx, outcome)
	span.SetAttributes(observe.KeyOutcome.String(outcome))
	if outcome == "closed" {
		observe.EndSpan(span, nil)
	} else {
		observe.EndSpan(span, err)
	}
	return cmd, err
}

// Close cancels any in-flight capture, waits for Run to return, and resets
// the session to Idle. Calling Close on an idle session is safe.
func (s *Session) Close() {
	s.mu.Lock()
	running, cancel, done := s.running, s.cancel, s.done
	if running {
		s.closing = true
	}
	s.mu.Unlock()

	if running {
		cancel()
		<-done
	}
	s.transition(Event{State: Idle})
}

func (s *Session) run(ctx context.Context) (*types.ParsedCommand, error) {
	log := observe.Logger(ctx).With("language", s.lang)
	dict := s.cfg.Parser.Dictionaries().Get(s.lang)

	text, err := s.listen(ctx, dict)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	s.transition(Event{State: Processing, Message: dict.Prompt(dictionary.PromptProcessing), Transcript: text})

	cmd := s.cfg.Parser.Parse(ctx, intake.Input{
		Transcript: text,
		Language:   s.lang,
		Roster:     s.cfg.Roster,
	})
	if cmd == nil {
		return nil, s.fail(ctx, fmt.Errorf("%w: empty transcript", stt.ErrRecognition))
	}
	if cmd.TeamID != "" || len(s.cfg.Roster) == 0 {
		return s.finish(ctx, dict, cmd)
	}

	prompt, suggestion := dict.Prompt(dictionary.PromptAskTeam), ""
	for attempt := 1; ; attempt++ {
		s.transition(Event{State: AskingTeam, Message: prompt, Suggestion: suggestion})
		s.speak(ctx, prompt)
		if err := s.cfg.Sleep(ctx, s.cfg.RelistenDelay); err != nil {
			return nil, err
		}

		answer, err := s.listen(ctx, dict)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		s.transition(Event{State: Processing, Message: dict.Prompt(dictionary.PromptProcessing), Transcript: answer})

		if t, ok := s.matchTeam(answer); ok {
			log.Debug("session: team answer matched", "team_id", t.ID, "attempt", attempt)
			resolved := cmd.WithTeam(t.ID)
			return s.finish(ctx, dict, &resolved)
		}

		s.metrics.TeamRetries.Add(ctx, 1)
		if limit := s.cfg.MaxTeamRetries; limit > 0 && attempt >= limit {
			log.Info("session: team retries exhausted", "attempts", attempt)
			msg := dict.Prompt(dictionary.PromptMissingInfo)
			s.speak(ctx, msg)
			s.setError(ctx, msg, ErrTeamUnresolved)
			return nil, ErrTeamUnresolved
		}

		prompt, suggestion = dict.Prompt(dictionary.PromptRetry), ""
		if sug, ok := team.Suggest(answer, s.cfg.Roster); ok {
			log.Debug("session: suggesting team", "team", sug.Team.Name, "score", sug.Score)
			suggestion = sug.Team.Name
		}
	}
}

// listen publishes the Listening state and captures one utterance.
func (s *Session) listen(ctx context.Context, dict *dictionary.Dictionary) (string, error) {
	s.transition(Event{State: Listening, Message: dict.Prompt(dictionary.PromptListening)})
	return s.cfg.Capturer.Capture(ctx, s.lang)
}

// matchTeam resolves a team-only answer by case-insensitive substring over
// both the normalised and the raw answer.
func (s *Session) matchTeam(answer string) (team.Team, bool) {
	normalized := transcript.NewNormalizer(s.cfg.Parser.Dictionaries()).NormalizeFor(answer, s.lang)
	return team.Resolve([]string{normalized, strings.ToLower(answer)}, s.cfg.Roster)
}

func (s *Session) finish(ctx context.Context, dict *dictionary.Dictionary, cmd *types.ParsedCommand) (*types.ParsedCommand, error) {
	msg := dict.Prompt(dictionary.PromptSuccess)
	s.transition(Event{State: Success, Message: msg, Command: cmd})
	s.speak(ctx, msg)

	if err := s.cfg.Sleep(ctx, s.cfg.CloseDelay); err == nil {
		s.transition(Event{State: Idle})
	}
	return cmd, nil
}

// fail moves the session to Error unless ctx was cancelled, in which case
// the cancellation error is returned unchanged.
func (s *Session) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := errorMessage(err)
	s.setError(ctx, msg, err)
	return fmt.Errorf("session: capture: %w", err)
}

func (s *Session) setError(ctx context.Context, msg string, err error) {
	observe.Logger(ctx).Warn("session: dialogue failed", "err", err)
	s.transition(Event{State: Error, Message: msg, Err: err})
}

func errorMessage(err error) string {
	if errors.Is(err, stt.ErrUnsupported) {
		return "Speech recognition is not supported by this client."
	}
	return "Error: " + err.Error()
}

func (s *Session) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := s.cfg.Speaker.Speak(ctx, text, s.lang); err != nil {
		observe.Logger(ctx).Debug("session: speak failed", "err", err)
	}
}

// transition sets the state and publishes ev. Transitions out of Error
// other than to Idle are ignored.
func (s *Session) transition(ev Event) {
	s.mu.Lock()
	if s.state == Error && ev.State != Idle {
		s.mu.Unlock()
		return
	}
	s.state = ev.State
	s.mu.Unlock()

	ev.SessionID = s.id
	if ev.Err != nil && ev.Message == "" {
		ev.Message = ev.Err.Error()
	}
	if s.cfg.OnEvent != nil {
		s.cfg.OnEvent(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
