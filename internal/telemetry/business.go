package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DashboardTracer provides utilities for tracing dashboard recomputation.
// It tags spans with the dataset version and parameter state so slow or
// uncached requests can be found by lag, smoothing and blend mode.
type DashboardTracer struct {
	tracer trace.Tracer
}

// RecomputeOutcome summarizes one recompute for span attributes.
type RecomputeOutcome struct {
	CacheHit    bool
	Records     int
	Regimes     int
	Correlation float64
	MDA         float64
}

// NewDashboardTracer creates a new instance of DashboardTracer.
//
// Returns:
//   - A pointer to a DashboardTracer bound to the analytics tracer.
func NewDashboardTracer() *DashboardTracer {
	return &DashboardTracer{tracer: GetAnalyticsTracer()}
}

// TraceRecompute starts a span around one series recompute.
//
// Parameters:
//   - ctx: The request context.
//   - version: The dashboard dataset version.
//   - lag: The requested lag in months.
//   - smoothing: The EMA window.
//   - blend: Whether the structural/tactical blend is on.
//
// Returns:
//   - A context carrying the new span.
//   - The span; callers must End it.
func (dt *DashboardTracer) TraceRecompute(ctx context.Context, version string, lag, smoothing int, blend bool) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "dashboard.recompute",
		trace.WithAttributes(
			attribute.String("dashboard.version", version),
			attribute.Int("dashboard.lag", lag),
			attribute.Int("dashboard.smoothing", smoothing),
			attribute.Bool("dashboard.blend", blend),
		),
	)
}

// RecordRecompute adds the recompute outcome to span.
//
// Parameters:
//   - span: The span returned by TraceRecompute.
//   - outcome: What the recompute produced.
func (dt *DashboardTracer) RecordRecompute(span trace.Span, outcome RecomputeOutcome) {
	span.SetAttributes(
		attribute.Bool("cache.hit", outcome.CacheHit),
		attribute.Int("dashboard.records", outcome.Records),
		attribute.Int("dashboard.regimes", outcome.Regimes),
		attribute.Float64("dashboard.correlation", outcome.Correlation),
		attribute.Float64("dashboard.mda", outcome.MDA),
	)
	span.SetStatus(codes.Ok, "")
}

// TraceLagProfile starts a span around a full lag sweep.
//
// Parameters:
//   - ctx: The request context.
//   - version: The dashboard dataset version.
//   - maxLag: The last lag included in the sweep.
//
// Returns:
//   - A context carrying the new span.
//   - The span; callers must End it.
func (dt *DashboardTracer) TraceLagProfile(ctx context.Context, version string, maxLag int) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "dashboard.lag_profile",
		trace.WithAttributes(
			attribute.String("dashboard.version", version),
			attribute.Int("dashboard.max_lag", maxLag),
		),
	)
}

// RecordFailure marks span failed with err.
func (dt *DashboardTracer) RecordFailure(span trace.Span, err error) {
	RecordError(span, err)
}
