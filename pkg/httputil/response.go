package httputil

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
	"github.com/augbriz/desarrollo-FE-tp/pkg/validator"
)

// Response is the envelope shared with the store API: payloads go under
// "data", failures under "error".
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the body of a failed call. Retryable drives the retry
// button in the moderation UI.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v in the data envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, Response{Data: v})
}

// WriteError renders err through apperrors.From. Server-side failures are
// logged with their cause and sent to Sentry; the admin only sees the safe
// message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	appErr := apperrors.From(err)

	if appErr.Status >= http.StatusInternalServerError {
		l := logger.FromContext(ctx)
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.CaptureException(err)
		}
		l.ErrorContext(ctx, "request failed",
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteAppError(w, r, appErr)
}

// WriteAppError renders e without logging or reporting it.
func WriteAppError(w http.ResponseWriter, r *http.Request, e *apperrors.AppError) {
	writeProblem(w, e.Status, &ErrorResponse{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	})
}

// WriteValidationError answers 400. Validator failures list the offending
// fields by their wire name.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		writeProblem(w, http.StatusBadRequest, &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
		return
	}
	writeProblem(w, http.StatusBadRequest, &ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Fields:  valErr.Fields(),
	})
}

// ParseID reads a positive integer path parameter. It answers 400
// INVALID_PARAMETER itself and returns false when param is not one.
func ParseID(w http.ResponseWriter, param string) (int, bool) {
	if id, err := strconv.Atoi(param); err == nil && id > 0 {
		return id, true
	}
	writeProblem(w, http.StatusBadRequest, &ErrorResponse{
		Code:    "INVALID_PARAMETER",
		Message: "invalid id: " + param,
	})
	return 0, false
}

func writeProblem(w http.ResponseWriter, status int, body *ErrorResponse) {
	WriteJSON(w, status, Response{Error: body})
}
