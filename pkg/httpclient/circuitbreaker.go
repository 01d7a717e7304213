package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// Doer sends a request. *Client and *Breaker both implement it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// BreakerConfig controls when an upstream is considered down.
type BreakerConfig struct {
	// Probes is how many requests may pass while half-open.
	Probes uint32 `env:"BREAKER_PROBES" envDefault:"1"`
	// Window resets the closed-state counters.
	Window time.Duration `env:"BREAKER_WINDOW" envDefault:"60s"`
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
	// Trip opens the breaker once this share of requests in the window fail,
	// counted only after MinSamples requests.
	Trip       float64 `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	MinSamples uint32  `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// ErrCircuitOpen is returned for requests rejected by an open breaker.
var ErrCircuitOpen = gobreaker.ErrOpenState

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upstream_breaker_state",
		Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"upstream"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_rejected_total",
		Help: "Requests refused because the upstream breaker was open",
	}, []string{"upstream"})
)

var stateValue = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

// Breaker guards one upstream. 5xx answers count as failures and come back
// as retryable upstream AppErrors; other statuses are handed to the caller.
// While open, requests fail fast with a 503 AppError that wraps
// ErrCircuitOpen.
type Breaker struct {
	upstream string
	next     Doer
	cb       *gobreaker.CircuitBreaker[*http.Response]
	logger   *slog.Logger
}

// NewBreaker wraps next with a circuit breaker named after upstream.
func NewBreaker(upstream string, next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	b := &Breaker{upstream: upstream, next: next, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        upstream,
		MaxRequests: cfg.Probes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinSamples &&
				float64(c.TotalFailures) >= cfg.Trip*float64(c.Requests)
		},
		// The caller giving up says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: b.stateChanged,
	})
	breakerState.WithLabelValues(upstream).Set(0)
	return b
}

func (b *Breaker) stateChanged(name string, from, to gobreaker.State) {
	level := slog.LevelWarn
	if to == gobreaker.StateClosed {
		level = slog.LevelInfo
	}
	b.logger.Log(context.Background(), level, "upstream breaker state changed",
		slog.String("upstream", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	breakerState.WithLabelValues(name).Set(stateValue[to])
}

// Do sends req through the breaker.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, ParseResponseError(resp, b.upstream)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejected.WithLabelValues(b.upstream).Inc()
		b.logger.WarnContext(ctx, "upstream breaker rejected request",
			slog.String("upstream", b.upstream),
			slog.String("path", req.URL.Path),
		)
		return nil, apperrors.ServiceUnavailable(b.upstream+" is temporarily unavailable, retry in a few seconds").
			WithCause(fmt.Errorf("%s: %w", b.upstream, ErrCircuitOpen))
	}
	return resp, err
}

// Open reports whether the breaker is currently refusing requests.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// State returns the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
