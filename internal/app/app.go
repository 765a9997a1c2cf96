// Package app wires the voxbook subsystems into a running server.
//
// The App owns the full lifecycle: New builds the pipeline, stores and HTTP
// surfaces from the config, Run serves HTTP until the context ends, Reload
// applies a changed config in place, and Shutdown releases the stores.
//
// For testing, inject doubles via functional options (WithBookingStore,
// WithTeamStore, ...). When an option is not provided, New creates the real
// implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voxbook/internal/api"
	"github.com/MrWong99/voxbook/internal/bookingstore"
	"github.com/MrWong99/voxbook/internal/config"
	"github.com/MrWong99/voxbook/internal/conflict"
	"github.com/MrWong99/voxbook/internal/dictionary"
	"github.com/MrWong99/voxbook/internal/health"
	"github.com/MrWong99/voxbook/internal/intake"
	"github.com/MrWong99/voxbook/internal/mcptools"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/internal/resilience"
	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/internal/temporal"
	"github.com/MrWong99/voxbook/internal/voicews"
	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// readHeaderTimeout bounds slow clients on the listener.
const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg            *config.Config
	version        string
	level          *slog.LevelVar
	metrics        *observe.Metrics
	metricsHandler http.Handler
	registry       *config.Registry

	parser   atomic.Pointer[intake.Parser]
	detector atomic.Pointer[conflict.Detector]

	teams       team.Store
	staticTeams *team.MemStore
	bookings    bookingstore.Store
	pg          *bookingstore.PostgresStore
	transcriber stt.Transcriber

	api     *api.Handler
	voice   *voicews.Handler
	mcp     *mcpsdk.Server
	handler http.Handler

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithBookingStore injects a booking store instead of creating one from
// config.
func WithBookingStore(s bookingstore.Store) Option {
	return func(a *App) { a.bookings = s }
}

// WithTeamStore injects the roster source instead of creating one from
// config. Static teams in the config are then ignored.
func WithTeamStore(s team.Store) Option {
	return func(a *App) { a.teams = s }
}

// WithTranscriber injects the server-side transcriber.
func WithTranscriber(t stt.Transcriber) Option {
	return func(a *App) { a.transcriber = t }
}

// WithRegistry sets the transcriber registry. Default: an empty registry.
func WithRegistry(r *config.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithMetricsHandler sets the /metrics handler, usually
// [observe.Telemetry.Handler]. Default: the Prometheus default registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevel lets Reload change the level of the process logger.
func WithLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// New creates an App from cfg. cfg must have defaults applied.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, version: "dev"}
	for _, o := range opts {
		o(a)
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
	}
	a.level.Set(cfg.Server.LogLevel.SlogLevel())
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.registry == nil {
		a.registry = config.NewRegistry()
	}

	// ── 1. Pipeline ──────────────────────────────────────────────────────
	p, d, err := BuildPipeline(cfg, a.metrics)
	if err != nil {
		return nil, fmt.Errorf("app: build pipeline: %w", err)
	}
	a.parser.Store(p)
	a.detector.Store(d)

	// ── 2. Stores ────────────────────────────────────────────────────────
	if err := a.initStorage(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init storage: %w", err)
	}

	// ── 3. Transcriber ───────────────────────────────────────────────────
	if a.transcriber == nil && cfg.Voice.Transcriber.Name != "" {
		if a.transcriber, err = a.buildTranscriber(cfg.Voice); err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: create transcriber: %w", err)
		}
	}

	// ── 4. HTTP surfaces ─────────────────────────────────────────────────
	if err := a.initHTTP(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init http: %w", err)
	}
	return a, nil
}

// buildTranscriber creates the configured transcriber. With fallbacks the
// backends are wrapped in a breaker-guarded failover.
func (a *App) buildTranscriber(vc config.VoiceConfig) (stt.Transcriber, error) {
	entries := append([]config.ProviderEntry{vc.Transcriber}, vc.TranscriberFallbacks...)
	backends := make([]resilience.Backend[stt.Transcriber], 0, len(entries))
	for i, e := range entries {
		t, err := a.registry.CreateTranscriber(e)
		if err != nil {
			return nil, fmt.Errorf("transcriber %d (%s): %w", i, e.Name, err)
		}
		name := e.Name
		if i > 0 {
			name = fmt.Sprintf("%s#%d", e.Name, i)
		}
		backends = append(backends, resilience.Backend[stt.Transcriber]{Name: name, Value: t})
		slog.Info("transcriber created", "name", name)
	}
	if len(backends) == 1 {
		return backends[0].Value, nil
	}
	failover, err := resilience.NewTranscriber(resilience.BreakerConfig{
		MaxFailures: vc.Breaker.MaxFailures,
		CoolDown:    vc.Breaker.CoolDown,
	}, backends...)
	if err != nil {
		return nil, err
	}
	return failover, nil
}

// BuildPipeline constructs the command parser and conflict detector
// described by cfg.
func BuildPipeline(cfg *config.Config, metrics *observe.Metrics) (*intake.Parser, *conflict.Detector, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	extra, err := dictionary.LoadFiles(cfg.Dictionaries.Paths)
	if err != nil {
		return nil, nil, err
	}
	storeOpts := []dictionary.Option{dictionary.WithDictionaries(extra...)}
	if cfg.Intake.DefaultLanguage != "" {
		storeOpts = append(storeOpts, dictionary.WithDefaultLanguage(cfg.Intake.DefaultLanguage))
	}

	var extOpts []temporal.Option
	if h := cfg.Intake.DefaultStartHour; h != nil {
		extOpts = append(extOpts, temporal.WithDefaultStartHour(*h))
	}
	if cfg.Intake.DefaultDuration > 0 {
		extOpts = append(extOpts, temporal.WithDefaultDuration(cfg.Intake.DefaultDuration))
	}

	p := intake.New(
		intake.WithDictionaries(dictionary.NewStore(storeOpts...)),
		intake.WithExtractor(temporal.New(extOpts...)),
		intake.WithLocation(loc),
		intake.WithMetrics(metrics),
	)
	d := conflict.New(conflict.WithLocation(loc), conflict.WithMetrics(metrics))
	return p, d, nil
}

func (a *App) initStorage(ctx context.Context) error {
	st := a.cfg.Storage
	if st.PostgresDSN != "" && (a.bookings == nil || a.teams == nil) {
		pg, err := bookingstore.Open(ctx, st.PostgresDSN, st.Migrate)
		if err != nil {
			return err
		}
		a.pg = pg
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		if a.bookings == nil {
			a.bookings = pg
		}
		if a.teams == nil {
			a.teams = team.NewCachedStore(pg.Teams(), st.RosterCacheSize, st.RosterCacheTTL)
		}
		slog.Info("postgres booking store connected", "migrate", st.Migrate)
	}

	if a.bookings == nil && st.BookingsFile != "" {
		bookings, err := bookingstore.LoadBookingsFile(st.BookingsFile)
		if err != nil {
			return err
		}
		a.bookings = bookingstore.NewMemStore(bookings...)
		slog.Info("booking snapshot loaded", "path", st.BookingsFile, "bookings", len(bookings))
	}
	if a.bookings == nil {
		slog.Warn("no booking source configured; conflict checks need an explicit booking list")
	}

	if a.teams == nil {
		a.staticTeams = team.NewMemStore(a.cfg.Teams...)
		a.teams = a.staticTeams
	}
	return nil
}

func (a *App) initHTTP() error {
	var err error
	a.api, err = api.New(api.Config{
		Parser:   a.Parser(),
		Detector: a.Detector(),
		Teams:    a.teams,
		Bookings: a.bookings,
	})
	if err != nil {
		return err
	}

	tr := voicews.Config{
		Parser:         a.Parser,
		Teams:          a.teams,
		Transcriber:    a.transcriber,
		OriginPatterns: a.cfg.Server.AllowedOrigins,
		Metrics:        a.metrics,
	}
	tr.RelistenDelay, tr.CloseDelay, tr.MaxTeamRetries = timing(a.cfg)
	if a.transcriber != nil {
		tr.TranscriberName = a.cfg.Voice.Transcriber.Name
	}
	if a.voice, err = voicews.New(tr); err != nil {
		return err
	}

	mux := http.NewServeMux()
	a.api.Register(mux)
	mux.Handle("GET /v1/voice", a.voice)
	if a.cfg.MCP.Enabled {
		a.mcp, err = mcptools.NewServer(mcptools.Config{
			Name:     "voxbook",
			Version:  a.version,
			Parser:   a.Parser,
			Detector: a.Detector,
			Teams:    a.teams,
			Bookings: a.bookings,
			Metrics:  a.metrics,
		})
		if err != nil {
			return err
		}
		mux.Handle(a.cfg.MCP.Path, mcptools.Handler(a.mcp))
	}
	if a.metricsHandler == nil {
		a.metricsHandler = promhttp.Handler()
	}
	mux.Handle("GET /metrics", a.metricsHandler)

	checkers := []health.Checker{
		health.CountChecker("dictionaries", func() int { return a.Parser().Dictionaries().Len() }),
	}
	if a.pg != nil {
		checkers = append(checkers, health.PingChecker("bookings", a.pg))
	}
	health.New(checkers...).Register(mux)

	a.handler = observe.Middleware(a.metrics)(mux)
	return nil
}

func timing(cfg *config.Config) (relisten, closeDelay time.Duration, maxRetries int) {
	maxRetries = config.DefaultMaxTeamRetries
	if cfg.Voice.MaxTeamRetries != nil {
		maxRetries = *cfg.Voice.MaxTeamRetries
	}
	return cfg.Voice.RelistenDelay, cfg.Voice.CloseDelay, maxRetries
}

// Parser returns the current command parser.
func (a *App) Parser() *intake.Parser { return a.parser.Load() }

// Detector returns the current conflict detector.
func (a *App) Detector() *conflict.Detector { return a.detector.Load() }

// Handler returns the root HTTP handler with middleware applied.
func (a *App) Handler() http.Handler { return a.handler }

// Reload applies the reloadable differences between old and new. Sections
// that need a restart are logged and left unchanged.
func (a *App) Reload(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Changed() {
		return
	}

	if d.LogLevelChanged {
		a.level.Set(new.Server.LogLevel.SlogLevel())
		slog.Info("log level changed", "level", new.Server.LogLevel)
	}
	if d.IntakeChanged {
		p, det, err := BuildPipeline(new, a.metrics)
		if err != nil {
			slog.Error("reload: keeping previous pipeline", "err", err)
		} else {
			a.parser.Store(p)
			a.detector.Store(det)
			a.api.SetParser(p, det)
			slog.Info("pipeline reloaded", "languages", p.Dictionaries().Len(), "timezone", p.Location().String())
		}
	}
	if d.VoiceChanged {
		var t voicews.Timing
		t.RelistenDelay, t.CloseDelay, t.MaxTeamRetries = timing(new)
		a.voice.SetTiming(t)
		slog.Info("voice timing reloaded", "relisten_delay", t.RelistenDelay, "close_delay", t.CloseDelay, "max_team_retries", t.MaxTeamRetries)
		if !reflect.DeepEqual(old.Voice.Transcriber, new.Voice.Transcriber) ||
			!reflect.DeepEqual(old.Voice.TranscriberFallbacks, new.Voice.TranscriberFallbacks) ||
			old.Voice.Breaker != new.Voice.Breaker {
			slog.Warn("voice.transcriber changes take effect after restart")
		}
	}
	if d.TeamsChanged {
		if a.staticTeams != nil {
			a.staticTeams.Replace(new.Teams)
			slog.Info("team roster reloaded", "added", d.TeamsAdded, "removed", d.TeamsRemoved)
		} else {
			slog.Warn("static teams changed but the roster comes from the database; ignoring")
		}
	}
	for _, section := range d.RestartRequired {
		slog.Warn("config section changed; restart to apply", "section", section)
	}
	a.cfg = new
}

// Run serves HTTP on the configured address until ctx is cancelled, then
// shuts the listener down gracefully. A clean shutdown returns nil.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: http shutdown: %w", err)
		}
		return nil
	})

	slog.Info("http server listening", "addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)
	return g.Wait()
}

// Shutdown releases the stores. It respects the context deadline: if ctx
// expires before all closers finish, the remaining ones are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) closeAll() {
	_ = a.Shutdown(context.Background())
}
