package database

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/liquidity-lens/internal/telemetry"
)

// TracingHook emits one client span per redis command or pipeline.
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var _ redis.Hook = (*TracingHook)(nil)

// NewTracingHook creates a hook bound to the cache tracer.
func NewTracingHook(addr string, db int) *TracingHook {
	return newTracingHook(telemetry.GetCacheTracer(), addr, db)
}

func newTracingHook(tracer trace.Tracer, addr string, db int) *TracingHook {
	return &TracingHook{
		tracer: tracer,
		attrs: []attribute.KeyValue{
			attribute.String("db.system", "redis"),
			attribute.String("server.address", addr),
			attribute.Int("db.redis.database_index", db),
		},
	}
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		ctx, span := h.tracer.Start(ctx, "redis.dial",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...))
		defer span.End()

		conn, err := next(ctx, network, addr)
		telemetry.RecordError(span, err)
		return conn, err
	}
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := h.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
			trace.WithAttributes(attribute.String("db.operation", cmd.Name())))
		defer span.End()

		err := next(ctx, cmd)
		recordCmdError(span, err)
		return err
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		ctx, span := h.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
			trace.WithAttributes(
				attribute.String("db.operation", strings.Join(names, " ")),
				attribute.Int("db.redis.num_cmd", len(cmds)),
			))
		defer span.End()

		err := next(ctx, cmds)
		recordCmdError(span, err)
		return err
	}
}

// redis.Nil is a miss, not a failure.
func recordCmdError(span trace.Span, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	telemetry.RecordError(span, err)
}
