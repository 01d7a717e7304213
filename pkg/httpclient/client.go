package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RetryPolicy bounds how often and how patiently an idempotent call is
// repeated.
type RetryPolicy struct {
	Attempts int           `env:"MAX_RETRIES" envDefault:"2"`
	MinWait  time.Duration `env:"RETRY_MIN_WAIT" envDefault:"200ms"`
	MaxWait  time.Duration `env:"RETRY_MAX_WAIT" envDefault:"2s"`
}

// NoRetry sends every request exactly once.
var NoRetry = RetryPolicy{}

// wait is the exponential pause before retry n (1-based), capped at MaxWait
// and spread by ±25%.
func (p RetryPolicy) wait(n int) time.Duration {
	d := p.MinWait << (n - 1)
	if d > p.MaxWait || d <= 0 {
		d = p.MaxWait
	}
	return jitter(d)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	quarter := float64(d) / 4
	return time.Duration(float64(d) - quarter + rand.Float64()*2*quarter)
}

// Config describes the connection pool and retry policy for one upstream.
type Config struct {
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
	ConnsPerHost int           `env:"MAX_CONNS_PER_HOST" envDefault:"32"`
	Retry        RetryPolicy
}

// Client is an http.Client that propagates trace context and retries
// idempotent requests on transport errors and 5xx answers. Requests with
// side effects (POST, PATCH) are sent once.
type Client struct {
	http  *http.Client
	retry RetryPolicy
}

// New creates a Client with a pooled transport.
func New(cfg Config) *Client {
	conns := cfg.ConnsPerHost
	if conns <= 0 {
		conns = 32
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          2 * conns,
				MaxIdleConnsPerHost:   conns,
				MaxConnsPerHost:       conns,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
		},
		retry: cfg.Retry,
	}
}

// Do sends req, retrying as the policy allows. The last 5xx response is
// returned as is once retries run out.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	attempts := 1
	if replayable(req) {
		attempts += max(c.retry.Attempts, 0)
	}

	for n := 1; ; n++ {
		resp, err := c.http.Do(req)
		last := n == attempts

		switch {
		case err != nil && (last || !transient(err)):
			return nil, fmt.Errorf("%s %s: attempt %d: %w", req.Method, req.URL.Path, n, err)
		case err == nil && (last || !retryStatus(resp.StatusCode)):
			return resp, nil
		case err == nil:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retry.wait(n)):
		}
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}
}

func replayable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	}
	return false
}

// 501 means the upstream will never handle the call.
func retryStatus(code int) bool {
	return code >= 500 && code != http.StatusNotImplemented
}

func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
