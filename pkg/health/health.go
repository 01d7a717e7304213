package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/augbriz/desarrollo-FE-tp/pkg/httputil"
)

// Checker probes one dependency.
type Checker func(ctx context.Context) error

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// DefaultTimeout bounds one readiness probe across all checkers.
const DefaultTimeout = 3 * time.Second

var dependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "backoffice",
	Name:      "dependency_up",
	Help:      "1 when the last readiness probe of a dependency passed.",
}, []string{"dependency"})

type Response struct {
	Status    Status                 `json:"status"`
	Service   string                 `json:"service,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status   Status `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type check struct {
	probe    Checker
	optional bool
}

// Handler serves /health/live and /health/ready. A failing required check
// takes the service out of rotation; a failing optional one only degrades
// it.
type Handler struct {
	service string
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]check
}

func NewHandler(service string) *Handler {
	return &Handler{service: service, timeout: DefaultTimeout, checks: make(map[string]check)}
}

// WithTimeout overrides the readiness probe deadline.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	h.timeout = d
	return h
}

// Register adds a required check, replacing any check of the same name.
func (h *Handler) Register(name string, probe Checker) {
	h.add(name, check{probe: probe})
}

// RegisterOptional adds a check whose failure reports "degraded" but keeps
// readiness at 200.
func (h *Handler) RegisterOptional(name string, probe Checker) {
	h.add(name, check{probe: probe, optional: true})
}

func (h *Handler) add(name string, c check) {
	h.mu.Lock()
	h.checks[name] = c
	h.mu.Unlock()
}

func (h *Handler) snapshot() map[string]check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]check, len(h.checks))
	for name, c := range h.checks {
		out[name] = c
	}
	return out
}

// LivenessHandler answers 200 while the process serves requests.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Response{Status: StatusUp, Service: h.service, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler answers 503 when a required check fails.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		code := http.StatusOK
		if resp.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, resp)
	}
}

// Check probes every dependency concurrently under one deadline.
func (h *Handler) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := h.snapshot()
	results := make(map[string]CheckResult, len(checks))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := run(ctx, c)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			up := 0.0
			if res.Status == StatusUp {
				up = 1
			}
			dependencyUp.WithLabelValues(name).Set(up)
		}()
	}
	wg.Wait()

	return Response{
		Status:    overall(results),
		Service:   h.service,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
}

func run(ctx context.Context, c check) CheckResult {
	start := time.Now()
	err := c.probe(ctx)
	res := CheckResult{Status: StatusUp, Optional: c.optional, Duration: time.Since(start).String()}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
	}
	return res
}

func overall(results map[string]CheckResult) Status {
	status := StatusUp
	for _, r := range results {
		if r.Status != StatusDown {
			continue
		}
		if !r.Optional {
			return StatusDown
		}
		status = StatusDegraded
	}
	return status
}
