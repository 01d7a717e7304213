package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
	"github.com/augbriz/desarrollo-FE-tp/pkg/tracing"
)

const (
	serviceName = "store-api"
	tracerName  = "backoffice/client"
)

// envelope is the store API's response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// storeAPI issues JSON calls against the store API.
type storeAPI struct {
	http    httpclient.Doer
	baseURL string
	logger  *slog.Logger
}

func newStoreAPI(doer httpclient.Doer, baseURL string, logger *slog.Logger) storeAPI {
	return storeAPI{http: doer, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// call sends a request and decodes the data envelope into out when out is
// non-nil. An empty token sends no Authorization header. Non-2xx responses
// become AppErrors through httpclient.ParseResponseError.
func (s storeAPI) call(ctx context.Context, op, method, path string, query url.Values, token string, in, out any) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, op)
	defer func() { tracing.EndSpan(span, err) }()

	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("decode %s response: missing data", op)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", op, err)
	}
	return nil
}
