package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httputil"
)

// Recovery answers a handler panic with the 500 envelope. The stack goes to
// the access log entry when RequestLogging wraps this middleware, and to
// fallback when it does not. http.ErrAbortHandler keeps propagating.
func Recovery(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					entryFor(r, fallback).Panic(v, debug.Stack())
					httputil.WriteAppError(w, r, apperrors.Internal(nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func entryFor(r *http.Request, fallback *slog.Logger) chimw.LogEntry {
	if entry := chimw.GetLogEntry(r); entry != nil {
		return entry
	}
	return &accessEntry{logger: fallback, r: r}
}
