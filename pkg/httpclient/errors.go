package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// downstreamError covers the error bodies seen from the store API: the
// structured {"error":{"code","message"}} envelope and the flat
// {"message": "..."} form.
type downstreamError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type structuredError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError keyed on the status code. The downstream message is kept
// when the body carries one; otherwise the raw body (truncated) is used.
//
// The caller should only invoke this when resp.StatusCode indicates an error.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return mapDownstreamError(resp.StatusCode, "", fmt.Sprintf("failed to read body: %v", err), serviceName)
	}

	code, message := decodeDownstreamError(bodyBytes)
	return mapDownstreamError(resp.StatusCode, code, message, serviceName)
}

func decodeDownstreamError(body []byte) (code, message string) {
	var downstream downstreamError
	if json.Unmarshal(body, &downstream) == nil {
		if len(downstream.Error) > 0 {
			var se structuredError
			if json.Unmarshal(downstream.Error, &se) == nil && se.Message != "" {
				return se.Code, se.Message
			}
			var flat string
			if json.Unmarshal(downstream.Error, &flat) == nil && flat != "" {
				return "", flat
			}
		}
		if downstream.Message != "" {
			return "", downstream.Message
		}
	}

	raw := strings.TrimSpace(string(body))
	if len(raw) > 256 {
		raw = raw[:256]
	}
	return "", raw
}

// mapDownstreamError translates a downstream status into an AppError. The
// upstream's own error code is kept for failures the backoffice cannot
// classify.
func mapDownstreamError(status int, code, message, serviceName string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	appErr := apperrors.FromStatus(status, serviceName+": "+message)
	if code != "" && errors.Is(appErr, apperrors.ErrUpstream) {
		appErr = appErr.WithCode(code)
	}
	return appErr
}
