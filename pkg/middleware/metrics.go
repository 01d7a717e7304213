package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route pattern and status code",
	}, []string{"service", "method", "path", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "HTTP request latency, by route pattern and status code",
		// Status requests may wait for payment settlement up to the
		// configured maximum.
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15, 30},
	}, []string{"service", "method", "path", "code"})

	httpRequestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served",
	}, []string{"service"})
)

// routePattern names the chi route that served the request, so
// /admin/reviews/{id} stays one series. It is read after routing completes.
func routePattern(ctx context.Context) string {
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// PrometheusMetrics instruments every request with promhttp. Mount it on the
// chi router so route patterns are resolvable.
func PrometheusMetrics(service string) func(http.Handler) http.Handler {
	labels := prometheus.Labels{"service": service}
	total := httpRequestsTotal.MustCurryWith(labels)
	duration := httpRequestDuration.MustCurryWith(labels)
	inFlight := httpRequestsInFlight.WithLabelValues(service)
	byRoute := promhttp.WithLabelFromCtx("path", routePattern)

	return func(next http.Handler) http.Handler {
		h := promhttp.InstrumentHandlerDuration(duration, next, byRoute)
		h = promhttp.InstrumentHandlerCounter(total, h, byRoute)
		return promhttp.InstrumentHandlerInFlight(inFlight, h)
	}
}
