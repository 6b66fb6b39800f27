package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDashboardTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	dt := &DashboardTracer{tracer: tp.Tracer("test")}

	_, span := dt.TraceRecompute(context.Background(), "v2", 7, 6, true)
	dt.RecordRecompute(span, RecomputeOutcome{CacheHit: true, Records: 84, Regimes: 5, Correlation: 0.42, MDA: 0.61})
	span.End()

	_, span = dt.TraceLagProfile(context.Background(), "v1", 12)
	dt.RecordFailure(span, errors.New("bad"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	attrs := ended[0].Attributes()
	assert.Contains(t, attrs, attribute.String("dashboard.version", "v2"))
	assert.Contains(t, attrs, attribute.Int("dashboard.lag", 7))
	assert.Contains(t, attrs, attribute.Bool("cache.hit", true))
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	assert.Equal(t, "dashboard.lag_profile", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	assert.NotNil(t, NewDashboardTracer())
}

func TestDashboardTracer_RecordRecomputeUncached(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	dt := &DashboardTracer{tracer: tp.Tracer("test")}

	_, span := dt.TraceRecompute(context.Background(), "v1", 0, 1, false)
	dt.RecordRecompute(span, RecomputeOutcome{})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "dashboard.recompute", ended[0].Name())
	attrs := ended[0].Attributes()
	assert.Contains(t, attrs, attribute.Bool("cache.hit", false))
	assert.Contains(t, attrs, attribute.Bool("dashboard.blend", false))
	assert.Contains(t, attrs, attribute.Int("dashboard.records", 0))
}
