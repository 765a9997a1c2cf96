// Package voicews bridges a browser speech engine to a voice booking
// session over a websocket.
//
// The server drives the dialogue: it sends "listen" when it wants an
// utterance and "speak" when a prompt should be read aloud. The client
// answers each "listen" with a "transcript" text frame, a binary audio
// frame (transcribed server-side), or an "error" frame. A "close" frame
// ends the session. Every state transition is published as a "state"
// frame; a parsed booking arrives as a "result" frame, after which the
// server closes the connection.
//
// Query parameters: lang selects the dictionary and capture language;
// roster is "all" or a comma-separated list of team IDs; audio_type is the
// MIME type of binary frames.
package voicews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/session"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// maxFrameBytes caps inbound frames; audio utterances are the largest.
const maxFrameBytes = 8 << 20

// Config configures a [Handler].
type Config struct {
	// Parser returns the current intake parser. Required.
	Parser func() *intake.Parser

	// Teams is the roster source. Required.
	Teams team.Store

	// Transcriber handles binary audio frames. Nil makes audio frames fail
	// with [stt.ErrUnsupported].
	Transcriber stt.Transcriber

	// TranscriberName labels provider metrics. Default: "transcriber".
	TranscriberName string

	// RelistenDelay, CloseDelay and MaxTeamRetries are passed to every
	// session.
	RelistenDelay  time.Duration
	CloseDelay     time.Duration
	MaxTeamRetries int

	// OriginPatterns lists additional allowed Origin hosts.
	OriginPatterns []string

	// Metrics records metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Timing holds the per-session dialogue settings that can change at
// runtime.
type Timing struct {
	RelistenDelay  time.Duration
	CloseDelay     time.Duration
	MaxTeamRetries int
}

// Handler serves voice sessions. Each websocket connection runs exactly one
// dialogue.
type Handler struct {
	cfg    Config
	timing atomic.Pointer[Timing]
}

// New validates cfg and returns a Handler.
func New(cfg Config) (*Handler, error) {
	var errs []error
	if cfg.Parser == nil {
		errs = append(errs, errors.New("voicews: parser source is required"))
	}
	if cfg.Teams == nil {
		errs = append(errs, errors.New("voicews: team store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if cfg.TranscriberName == "" {
		cfg.TranscriberName = "transcriber"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	h := &Handler{cfg: cfg}
	h.SetTiming(Timing{RelistenDelay: cfg.RelistenDelay, CloseDelay: cfg.CloseDelay, MaxTeamRetries: cfg.MaxTeamRetries})
	return h, nil
}

// SetTiming replaces the dialogue settings for sessions opened from now on.
// Running sessions keep theirs.
func (h *Handler) SetTiming(t Timing) {
	h.timing.Store(&t)
}

// ServeHTTP upgrades the request and runs one voice session on it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observe.Logger(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.cfg.OriginPatterns})
	if err != nil {
		log.Warn("voicews: accept failed", "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	q := r.URL.Query()
	roster, err := h.roster(ctx, q.Get("roster"))
	if err != nil {
		log.Error("voicews: roster unavailable", "err", err)
		_ = wsjson.Write(ctx, conn, outbound{Type: msgError, Message: "team roster unavailable"})
		conn.Close(websocket.StatusInternalError, "roster unavailable")
		return
	}

	c := &client{
		conn:        conn,
		turns:       make(chan turn, 1),
		audioType:   q.Get("audio_type"),
		transcriber: h.cfg.Transcriber,
		name:        h.cfg.TranscriberName,
		metrics:     h.cfg.Metrics,
	}
	timing := h.timing.Load()
	sess, err := session.New(session.Config{
		Capturer:       c,
		Speaker:        c,
		Parser:         h.cfg.Parser(),
		Language:       q.Get("lang"),
		Roster:         roster,
		RelistenDelay:  timing.RelistenDelay,
		CloseDelay:     timing.CloseDelay,
		MaxTeamRetries: timing.MaxTeamRetries,
		OnEvent:        func(ev session.Event) { c.publish(ctx, ev) },
		Metrics:        h.cfg.Metrics,
	})
	if err != nil {
		log.Error("voicews: create session", "err", err)
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}
	log = log.With("session_id", sess.ID(), "language", sess.Language())
	log.Info("voicews: session opened", "roster_size", len(roster))

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		c.readLoop(ctx, sess, cancel)
	}()

	_, err = sess.Run(ctx)
	switch {
	case err == nil:
		log.Info("voicews: session finished")
		conn.Close(websocket.StatusNormalClosure, "booking parsed")
	case errors.Is(err, session.ErrClosed):
		// The reader returns once Close has published the final state.
		<-readDone
		log.Info("voicews: session closed by client")
		conn.Close(websocket.StatusNormalClosure, "closed")
		return
	case ctx.Err() != nil:
		log.Debug("voicews: connection gone", "err", err)
	default:
		log.Info("voicews: session failed", "err", err)
		_ = wsjson.Write(ctx, conn, outbound{Type: msgError, SessionID: sess.ID(), Message: err.Error()})
		conn.Close(websocket.StatusNormalClosure, "session failed")
	}
	cancel()
	<-readDone
}

// roster resolves the roster query parameter against the team store.
func (h *Handler) roster(ctx context.Context, param string) ([]team.Team, error) {
	teams, err := h.cfg.Teams.List(ctx)
	if err != nil {
		return nil, err
	}
	param = strings.TrimSpace(param)
	if param == "" || param == "all" {
		return teams, nil
	}
	var ids []string
	for _, id := range strings.Split(param, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return team.Filter(teams, ids), nil
}

// client adapts one websocket connection to the session's capabilities.
type client struct {
	conn *websocket.Conn
	// pending is set while a Capture waits for its answer. The reader
	// clears it when it forwards a frame, so at most one turn is in flight.
	pending     atomic.Bool
	turns       chan turn
	audioType   string
	transcriber stt.Transcriber
	name        string
	metrics     *observe.Metrics
}

// readLoop forwards client frames to pending captures until the connection
// closes. A close frame closes the session; a read failure cancels it.
func (c *client) readLoop(ctx context.Context, sess *session.Session, cancel context.CancelFunc) {
	log := observe.Logger(ctx)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			cancel()
			return
		}

		var t turn
		if typ == websocket.MessageBinary {
			t.audio = data
		} else {
			var msg inbound
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Debug("voicews: ignoring malformed frame", "err", err)
				continue
			}
			switch msg.Type {
			case msgClose:
				sess.Close()
				return
			case msgTranscript:
				t.text = msg.Text
			case msgError:
				t.code = msg.Code
				if t.code == "" {
					t.code = codeRecognitionError
				}
			default:
				log.Debug("voicews: ignoring unknown frame", "type", msg.Type)
				continue
			}
		}

		if !c.pending.CompareAndSwap(true, false) {
			log.Warn("voicews: dropping frame, no capture pending")
			continue
		}
		select {
		case c.turns <- t:
		case <-ctx.Done():
			return
		}
	}
}

// Capture implements stt.Capturer.
func (c *client) Capture(ctx context.Context, lang string) (string, error) {
	// A turn forwarded to a capture that was cancelled before reading it
	// is stale.
	select {
	case <-c.turns:
	default:
	}
	c.pending.Store(true)
	defer c.pending.Store(false)

	if err := wsjson.Write(ctx, c.conn, outbound{Type: msgListen, Language: lang}); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: send listen: %v", stt.ErrRecognition, err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case t := <-c.turns:
		switch {
		case t.code == codeUnsupported:
			return "", stt.ErrUnsupported
		case t.code != "":
			return "", fmt.Errorf("%w: client reported %q", stt.ErrRecognition, t.code)
		case t.audio != nil:
			return c.transcribe(ctx, t.audio, lang)
		}
		return t.text, nil
	}
}

func (c *client) transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	if c.transcriber == nil {
		return "", fmt.Errorf("%w: server-side transcription is not configured", stt.ErrUnsupported)
	}
	start := time.Now()
	text, err := c.transcriber.Transcribe(ctx, stt.Utterance{Data: audio, ContentType: c.audioType}, lang)
	c.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordProviderRequest(ctx, c.name, "stt", status)
	return text, err
}

// Speak implements tts.Speaker.
func (c *client) Speak(ctx context.Context, text, lang string) error {
	return wsjson.Write(ctx, c.conn, outbound{Type: msgSpeak, Text: text, Language: lang})
}

// publish forwards a session event to the client.
func (c *client) publish(ctx context.Context, ev session.Event) {
	msgs := []outbound{{
		Type:       msgState,
		SessionID:  ev.SessionID,
		State:      ev.State.String(),
		Message:    ev.Message,
		Transcript: ev.Transcript,
		Suggestion: ev.Suggestion,
	}}
	if ev.Command != nil {
		msgs = append(msgs, outbound{Type: msgResult, SessionID: ev.SessionID, Command: ev.Command})
	}
	for _, m := range msgs {
		if err := wsjson.Write(ctx, c.conn, m); err != nil {
			observe.Logger(ctx).Debug("voicews: write failed", "err", err)
			return
		}
	}
}
