package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func requireAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	return appErr
}

func TestParseResponseError_StatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		want     int
	}{
		{http.StatusNotFound, apperrors.ErrNotFound, http.StatusNotFound},
		{http.StatusBadRequest, apperrors.ErrInvalidInput, http.StatusBadRequest},
		{http.StatusConflict, apperrors.ErrConflict, http.StatusConflict},
		{http.StatusUnauthorized, apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{http.StatusForbidden, apperrors.ErrForbidden, http.StatusForbidden},
		{http.StatusPaymentRequired, apperrors.ErrPaymentRequired, http.StatusPaymentRequired},
		{http.StatusServiceUnavailable, apperrors.ErrServiceUnavail, http.StatusServiceUnavailable},
		{http.StatusInternalServerError, apperrors.ErrUpstream, http.StatusBadGateway},
		{http.StatusTeapot, apperrors.ErrUpstream, http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := ParseResponseError(makeResponse(tc.status, `{"message":"nope"}`), "store-api")
			appErr := requireAppError(t, err)
			assert.Equal(t, tc.want, appErr.Status)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Contains(t, appErr.Message, "store-api")
		})
	}
}

func TestParseResponseError_StructuredBody(t *testing.T) {
	body := `{"error":{"code":"TOKEN_EXPIRED","message":"token expired"}}`
	err := ParseResponseError(makeResponse(http.StatusUnauthorized, body), "store-api")

	appErr := requireAppError(t, err)
	assert.Equal(t, "store-api: token expired", appErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseResponseError_FlatErrorString(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusForbidden, `{"error":"admin role required"}`), "store-api")

	appErr := requireAppError(t, err)
	assert.Equal(t, "store-api: admin role required", appErr.Message)
}

func TestParseResponseError_UnstructuredBodyKeepsStatus(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusForbidden, "<html>Forbidden</html>"), "store-api")

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Contains(t, err.Error(), "<html>Forbidden</html>")
}

func TestParseResponseError_EmptyBodyUsesStatusText(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusNotFound, ""), "store-api")

	appErr := requireAppError(t, err)
	assert.Equal(t, "store-api: Not Found", appErr.Message)
}

func TestParseResponseError_5xxIsRetryable(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusInternalServerError, `{"message":"db down"}`), "store-api")
	assert.True(t, apperrors.IsRetryable(err))
}

func TestParseResponseError_KeepsUpstreamCodeOn5xx(t *testing.T) {
	body := `{"error":{"code":"DB_TIMEOUT","message":"database timeout"}}`
	err := ParseResponseError(makeResponse(http.StatusGatewayTimeout, body), "store-api")

	appErr := requireAppError(t, err)
	assert.Equal(t, "DB_TIMEOUT", appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
}

func TestParseResponseError_ClassifiedStatusKeepsOwnCode(t *testing.T) {
	body := `{"error":{"code":"ROLE_REQUIRED","message":"admin only"}}`
	err := ParseResponseError(makeResponse(http.StatusForbidden, body), "store-api")

	assert.Equal(t, "FORBIDDEN", requireAppError(t, err).Code)
}
