package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Options selects the level, encoding and destination of a logger.
type Options struct {
	Level  string    `env:"LOG_LEVEL" envDefault:"info"`
	Format string    `env:"LOG_FORMAT" envDefault:"json"`
	Writer io.Writer `env:"-"`
}

// New returns a logger tagged with the service name. Format "text" writes
// logfmt-style lines for local runs; anything else writes JSON.
func New(service string, opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	lvl := ParseLevel(opts.Level)
	ho := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(w, ho)
	} else {
		h = slog.NewJSONHandler(w, ho)
	}
	return slog.New(h).With(slog.String("service", service))
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "warning":
		return slog.LevelWarn
	default:
		if err := lvl.UnmarshalText([]byte(l)); err != nil {
			return slog.LevelInfo
		}
		return lvl
	}
}

type ctxKey int

const (
	requestKey ctxKey = iota
	loggerKey
)

// request is what the HTTP layer learns about a call before handlers run.
type request struct {
	correlationID string
	adminID       string
}

func requestFrom(ctx context.Context) request {
	r, _ := ctx.Value(requestKey).(request)
	return r
}

// WithCorrelationID stores the request's correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	r := requestFrom(ctx)
	r.correlationID = id
	return context.WithValue(ctx, requestKey, r)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return requestFrom(ctx).correlationID
}

// WithAdminID stores the acting administrator.
func WithAdminID(ctx context.Context, id string) context.Context {
	r := requestFrom(ctx)
	r.adminID = id
	return context.WithValue(ctx, requestKey, r)
}

func AdminIDFromContext(ctx context.Context) string {
	return requestFrom(ctx).adminID
}

// NewContext stores a request-scoped logger.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored by NewContext, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Attrs lists the request fields found in ctx: correlation_id, admin_id and
// the active span's trace_id and span_id. Empty fields are left out.
func Attrs(ctx context.Context) []any {
	var attrs []any
	r := requestFrom(ctx)
	if r.correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", r.correlationID))
	}
	if r.adminID != "" {
		attrs = append(attrs, slog.String("admin_id", r.adminID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

// WithContext returns l carrying the request fields of ctx.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		return l.With(attrs...)
	}
	return l
}
