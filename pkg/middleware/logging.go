package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
)

// CorrelationHeader carries the request id in both directions.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationID = 128

// RequestLogging assigns the correlation id and writes one access line per
// request through chi's RequestLogger. Health probes are not logged.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	access := chimw.RequestLogger(&accessLog{logger: l})
	return func(next http.Handler) http.Handler {
		logged := access(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(CorrelationHeader)
			if id == "" || len(id) > maxCorrelationID {
				id = uuid.NewString()
			}
			w.Header().Set(CorrelationHeader, id)
			logged.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), id)))
		})
	}
}

// RequestLogger stores a logger carrying the request fields of the context
// (correlation_id, admin_id, trace_id, span_id) for handlers to pick up
// with logger.FromContext. Mount it again after Auth to add admin_id.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, logger.WithContext(ctx, base))))
		})
	}
}

type accessLog struct {
	logger *slog.Logger
}

func (a *accessLog) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &accessEntry{logger: a.logger, r: r}
}

// accessEntry is the chi log entry of one request. Auth fills admin in
// once the token has been inspected.
type accessEntry struct {
	logger *slog.Logger
	r      *http.Request
	admin  string
}

func (e *accessEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	if strings.HasPrefix(e.r.URL.Path, "/health/") {
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	} else if status >= 400 {
		level = slog.LevelWarn
	}

	ctx := e.r.Context()
	attrs := []slog.Attr{
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
		slog.Int("bytes", bytes),
		slog.String("remote_addr", e.r.RemoteAddr),
		slog.String("user_agent", e.r.UserAgent()),
		slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
	}
	if e.admin != "" {
		attrs = append(attrs, slog.String("admin_id", e.admin))
	}
	e.logger.LogAttrs(ctx, level, "http request", attrs...)
}

func (e *accessEntry) Panic(v any, stack []byte) {
	e.logger.ErrorContext(e.r.Context(), "panic recovered",
		slog.Any("panic", v),
		slog.String("stack", string(stack)),
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.String("correlation_id", logger.CorrelationIDFromContext(e.r.Context())),
	)
}

// annotateAdmin records the acting admin on the access line of r.
func annotateAdmin(r *http.Request, admin string) {
	if e, ok := chimw.GetLogEntry(r).(*accessEntry); ok {
		e.admin = admin
	}
}
