// Package observe provides application-wide observability primitives for
// voxbook: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxbook metrics.
const meterName = "github.com/MrWong99/voxbook"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ParseDuration tracks command parsing latency (normalise, extract,
	// resolve).
	ParseDuration metric.Float64Histogram

	// TranscriptionDuration tracks server-side audio transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts parsed utterances. Use with attributes:
	//   attribute.String("language", ...), attribute.Bool("has_time", ...),
	//   attribute.Bool("team_resolved", ...)
	Utterances metric.Int64Counter

	// ConflictChecks counts conflict checks. Use with attribute:
	//   attribute.String("result", "conflict"|"clear")
	ConflictChecks metric.Int64Counter

	// SessionOutcomes counts finished voice sessions. Use with attribute:
	//   attribute.String("outcome", "success"|"error"|"closed")
	SessionOutcomes metric.Int64Counter

	// TeamRetries counts ASKING_TEAM answers that matched no team.
	TeamRetries metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// parseBuckets defines histogram bucket boundaries (in seconds) for the
// in-process parsing pipeline.
var parseBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// network-bound provider calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ParseDuration, err = m.Float64Histogram("voxbook.parse.duration",
		metric.WithDescription("Latency of utterance parsing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(parseBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("voxbook.stt.duration",
		metric.WithDescription("Latency of server-side audio transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("voxbook.utterances",
		metric.WithDescription("Total parsed utterances by language and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ConflictChecks, err = m.Int64Counter("voxbook.conflict.checks",
		metric.WithDescription("Total booking conflict checks by result."),
	); err != nil {
		return nil, err
	}
	if met.SessionOutcomes, err = m.Int64Counter("voxbook.sessions.outcomes",
		metric.WithDescription("Total finished voice sessions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TeamRetries, err = m.Int64Counter("voxbook.team.retries",
		metric.WithDescription("Total team answers that matched no team."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("voxbook.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("voxbook.tool.calls",
		metric.WithDescription("Total MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxbook.sessions.active",
		metric.WithDescription("Number of live voice sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxbook.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance records one parsed utterance.
func (m *Metrics) RecordUtterance(ctx context.Context, language string, hasTime, teamResolved bool) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("language", language),
			attribute.Bool("has_time", hasTime),
			attribute.Bool("team_resolved", teamResolved),
		),
	)
}

// RecordConflictCheck records one conflict check.
func (m *Metrics) RecordConflictCheck(ctx context.Context, hasConflict bool) {
	result := "clear"
	if hasConflict {
		result = "conflict"
	}
	m.ConflictChecks.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
}

// RecordSessionOutcome records a finished voice session.
func (m *Metrics) RecordSessionOutcome(ctx context.Context, outcome string) {
	m.SessionOutcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}
