package database

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/augbriz/desarrollo-FE-tp/pkg/database"

// TracingHook is a go-redis hook that opens a client span per command or
// pipeline and logs commands slower than a threshold. A zero threshold
// disables slow-command logging.
type TracingHook struct {
	slow   time.Duration
	logger *slog.Logger
}

var _ redis.Hook = (*TracingHook)(nil)

// NewTracingHook creates a TracingHook.
func NewTracingHook(slow time.Duration, logger *slog.Logger) *TracingHook {
	return &TracingHook{slow: slow, logger: logger}
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := otel.Tracer(tracerName).Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.String("db.operation", cmd.Name()),
			),
		)
		start := time.Now()

		err := next(ctx, cmd)

		h.finish(ctx, span, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			names = append(names, c.Name())
		}
		op := "pipeline(" + strings.Join(names, ",") + ")"

		ctx, span := otel.Tracer(tracerName).Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "redis"),
				attribute.String("db.operation", op),
				attribute.Int("db.redis.pipeline_length", len(cmds)),
			),
		)
		start := time.Now()

		err := next(ctx, cmds)

		h.finish(ctx, span, op, time.Since(start), err)
		return err
	}
}

func (h *TracingHook) finish(ctx context.Context, span trace.Span, op string, elapsed time.Duration, err error) {
	// A missing key is a normal outcome, not a failure.
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if h.slow > 0 && elapsed > h.slow && h.logger != nil {
		h.logger.WarnContext(ctx, "slow redis command",
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
		)
	}
}
