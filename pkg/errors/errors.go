package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels classify failures independently of how they are rendered.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
	ErrConflict        = errors.New("conflict")
	ErrServiceUnavail  = errors.New("service unavailable")
	ErrUpstream        = errors.New("upstream failure")
	ErrPaymentRequired = errors.New("payment not completed")
)

// kind ties a sentinel to its HTTP rendering.
type kind struct {
	sentinel  error
	status    int
	code      string
	retryable bool
}

var (
	kindNotFound        = kind{ErrNotFound, http.StatusNotFound, "NOT_FOUND", false}
	kindInvalidInput    = kind{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", false}
	kindUnauthorized    = kind{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", false}
	kindForbidden       = kind{ErrForbidden, http.StatusForbidden, "FORBIDDEN", false}
	kindConflict        = kind{ErrConflict, http.StatusConflict, "CONFLICT", false}
	kindPaymentRequired = kind{ErrPaymentRequired, http.StatusPaymentRequired, "PAYMENT_REQUIRED", false}
	kindUnavailable     = kind{ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", true}
	kindUpstream        = kind{ErrUpstream, http.StatusBadGateway, "UPSTREAM_ERROR", false}
	kindInternal        = kind{ErrInternal, http.StatusInternalServerError, "INTERNAL_ERROR", false}
)

// statusOrder is consulted by HTTPStatus for errors that are not AppErrors.
var statusOrder = []kind{
	kindNotFound, kindConflict, kindInvalidInput, kindUnauthorized, kindForbidden,
	kindPaymentRequired, kindUnavailable, kindUpstream,
}

// AppError is an error with a stable code and an HTTP status. Message is
// safe to show to the admin; Err is kept for logs only. Retryable tells the
// caller whether repeating the same request can succeed.
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"-"`
	Retryable bool   `json:"retryable,omitempty"`
	Err       error  `json:"-"`
}

func newError(k kind, message string) *AppError {
	return &AppError{
		Code:      k.code,
		Message:   message,
		Status:    k.status,
		Retryable: k.retryable,
		Err:       k.sentinel,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCause attaches cause while keeping the error's sentinel reachable
// through errors.Is.
func (e *AppError) WithCause(cause error) *AppError {
	if cause == nil {
		return e
	}
	cpy := *e
	if cpy.Err == nil {
		cpy.Err = cause
	} else {
		cpy.Err = fmt.Errorf("%w: %w", e.Err, cause)
	}
	return &cpy
}

// WithCode replaces the machine-readable code.
func (e *AppError) WithCode(code string) *AppError {
	cpy := *e
	cpy.Code = code
	return &cpy
}

// NotFound reports a missing resource, e.g. NotFound("review", "7").
func NotFound(resource, id string) *AppError {
	return newError(kindNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

func InvalidInput(message string) *AppError { return newError(kindInvalidInput, message) }

func Unauthorized(message string) *AppError { return newError(kindUnauthorized, message) }

func Forbidden(message string) *AppError { return newError(kindForbidden, message) }

func Conflict(message string) *AppError { return newError(kindConflict, message) }

func PaymentRequired(message string) *AppError { return newError(kindPaymentRequired, message) }

// ServiceUnavailable is retryable.
func ServiceUnavailable(message string) *AppError { return newError(kindUnavailable, message) }

// SessionExpired is the 401 shown when the store API no longer accepts the
// admin's credential.
func SessionExpired(cause error) *AppError {
	return newError(kindUnauthorized, "session expired, sign in again").
		WithCode("SESSION_EXPIRED").
		WithCause(cause)
}

// Upstream reports a failed call to a dependency as a 502.
func Upstream(code, message string, retryable bool, cause error) *AppError {
	e := newError(kindUpstream, message).WithCause(cause)
	e.Code = code
	e.Retryable = retryable
	return e
}

// Internal hides err behind a generic 500 message.
func Internal(err error) *AppError {
	e := newError(kindInternal, "an internal error occurred")
	if err != nil {
		e.Err = err
	}
	return e
}

// FromStatus builds the AppError matching an HTTP status answered by a
// dependency. 5xx answers become retryable upstream errors, and anything
// unrecognised becomes a non-retryable one.
func FromStatus(status int, message string) *AppError {
	switch {
	case status == http.StatusNotFound:
		return newError(kindNotFound, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return InvalidInput(message)
	case status == http.StatusConflict:
		return Conflict(message)
	case status == http.StatusUnauthorized:
		return Unauthorized(message)
	case status == http.StatusForbidden:
		return Forbidden(message)
	case status == http.StatusPaymentRequired:
		return PaymentRequired(message)
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return ServiceUnavailable(message)
	case status >= 500:
		return Upstream(kindUpstream.code, message, true, fmt.Errorf("status %d", status))
	default:
		return Upstream(kindUpstream.code, message, false, fmt.Errorf("status %d", status))
	}
}

// fallbackMessages is what From shows for a bare sentinel.
var fallbackMessages = map[error]string{
	ErrNotFound:     "resource not found",
	ErrConflict:     "request conflicts with an operation in progress",
	ErrUnauthorized: "authentication required",
	ErrForbidden:    "insufficient permissions",
}

// From returns the AppError carried by err. Errors that only wrap a
// sentinel get that sentinel's code and a generic message, except invalid
// input which keeps err's text. Anything else becomes Internal(err).
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range statusOrder {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		msg, ok := fallbackMessages[k.sentinel]
		if !ok {
			msg = err.Error()
		}
		e := newError(k, msg)
		e.Err = err
		return e
	}
	return Internal(err)
}

// Wrap adds context to err.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// HTTPStatus returns the status an error should be rendered with.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, k := range statusOrder {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
