// Command voxbook is the voice booking server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrWong99/voxbook/internal/app"
	"github.com/MrWong99/voxbook/internal/config"
	"github.com/MrWong99/voxbook/internal/observe"
	"github.com/MrWong99/voxbook/pkg/provider/stt"
	sttopenai "github.com/MrWong99/voxbook/pkg/provider/stt/openai"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// ── Environment ───────────────────────────────────────────────────────────
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "voxbook: load %s: %v\n", *envPath, err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxbook: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxbook: %v\n", err)
		}
		return 1
	}
	config.ApplyEnv(cfg, os.LookupEnv)

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.SlogLevel())
	logger, closeLog := newLogger(cfg.Server, level)
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("voxbook starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxbook",
		ServiceVersion: version,
		SampleRatio:    cfg.Server.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Application ───────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinTranscribers(reg)

	application, err := app.New(ctx, cfg,
		app.WithRegistry(reg),
		app.WithLevel(level),
		app.WithVersion(version),
		app.WithMetrics(observe.DefaultMetrics()),
		app.WithMetricsHandler(tel.Handler()),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, application.Reload,
		config.WithTransform(func(c *config.Config) { config.ApplyEnv(c, os.LookupEnv) }),
	)
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg)

	if err := application.Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinTranscribers wires the transcriber factories that ship with
// voxbook into reg.
func registerBuiltinTranscribers(reg *config.Registry) {
	reg.RegisterTranscriber("openai", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		if entry.APIKey == "" {
			return nil, fmt.Errorf("openai transcriber: api_key or %s is required", config.EnvOpenAIAPIKey)
		}
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, sttopenai.WithOrganization(org))
		}
		if d, err := time.ParseDuration(optString(entry.Options, "timeout")); err == nil && d > 0 {
			opts = append(opts, sttopenai.WithTimeout(d))
		}
		return sttopenai.New(entry.APIKey, entry.Model, opts...)
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	storage := "(static)"
	switch {
	case cfg.Storage.PostgresDSN != "":
		storage = "postgres"
	case cfg.Storage.BookingsFile != "":
		storage = "yaml snapshot"
	}
	transcriber := cfg.Voice.Transcriber.Name
	if transcriber == "" {
		transcriber = "(browser only)"
	} else if n := len(cfg.Voice.TranscriberFallbacks); n > 0 {
		transcriber = fmt.Sprintf("%s (+%d fallback)", transcriber, n)
	}
	mcp := "(disabled)"
	if cfg.MCP.Enabled {
		mcp = cfg.MCP.Path
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         voxbook: startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("Timezone", orDefault(cfg.Intake.Timezone, "(local)"))
	printRow("Dictionaries", fmt.Sprintf("builtin + %d", len(cfg.Dictionaries.Paths)))
	printRow("Storage", storage)
	printRow("Static teams", fmt.Sprint(len(cfg.Teams)))
	printRow("Transcriber", transcriber)
	printRow("MCP", mcp)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}
