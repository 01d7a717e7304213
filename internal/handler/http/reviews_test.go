package http

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/internal/export"
	"github.com/augbriz/desarrollo-FE-tp/internal/service"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// ============================================================================
// Board
// ============================================================================

func TestBoard_FirstPageWithDefaults(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	assert.Len(t, board.View.Reviews, 15)
	assert.Equal(t, 1, board.View.Page)
	assert.Equal(t, 15, board.View.PageSize)
	assert.Equal(t, 2, board.View.TotalPages)
	assert.Equal(t, 20, board.View.FilteredCount)
	assert.Equal(t, 20, board.View.TotalCount)
	assert.Equal(t, 1, board.View.Reviews[0].ID)
	assert.Equal(t, domain.DefaultFilterState(), board.Filter)
	assert.Nil(t, board.Notice)
}

func TestBoard_FiltersFromQuery(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?q=USER1&bucket=2023&sort=asc&page_size=30&page=1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	// user1, user10..user19
	require.Len(t, board.View.Reviews, 11)
	assert.Equal(t, 30, board.View.PageSize)
	assert.Equal(t, 19, board.View.Reviews[0].ID)
	assert.Equal(t, 1, board.View.Reviews[10].ID)
}

func TestBoard_SecondPageOfSixteen(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(16), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?page=2", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	require.Len(t, board.View.Reviews, 1)
	assert.Equal(t, 16, board.View.Reviews[0].ID)
}

func TestBoard_ExplicitPageSurvivesFilterParams(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?q=user&sort=asc&page_size=15&page=2", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	assert.Equal(t, 2, board.Filter.Page)
	assert.Equal(t, 2, board.View.Page)
	require.Len(t, board.View.Reviews, 5)
	assert.Equal(t, 5, board.View.Reviews[0].ID)
}

func TestBoard_UnsupportedPageSizeFallsBack(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?page_size=7", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	assert.Equal(t, 15, board.View.PageSize)
	assert.Len(t, board.View.Reviews, 15)
}

func TestBoard_HugePageIsEmpty(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(2), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?page=1229782938247303442", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decodeData[service.Board](t, rec)
	assert.Empty(t, board.View.Reviews)
	assert.Equal(t, 1229782938247303442, board.View.Page)
	assert.Equal(t, 1, board.View.TotalPages)
	assert.Equal(t, 2, board.View.FilteredCount)
}

func TestBoard_ReviewsCarryRatingTier(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(5), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	type row struct {
		ID     int    `json:"id"`
		Rating int    `json:"puntaje"`
		Tier   string `json:"tier"`
	}
	board := decodeData[struct {
		View struct {
			Reviews []row `json:"reviews"`
		} `json:"view"`
	}](t, rec)

	assert.Equal(t, []row{
		{1, 1, domain.TierPoor},
		{2, 2, domain.TierPoor},
		{3, 3, domain.TierAverage},
		{4, 4, domain.TierGood},
		{5, 5, domain.TierGood},
	}, board.View.Reviews)
}

func TestBoard_UsesCachedSnapshot(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(3), nil).Once()

	for range 3 {
		rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	s.reviews.AssertNumberOfCalls(t, "ListAll", 1)
}

func TestBoard_ReloadRefetches(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(3), nil).Twice()

	s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?reload=true", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	s.reviews.AssertNumberOfCalls(t, "ListAll", 2)
}

func TestBoard_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"unknown bucket", "bucket=2019", "INVALID_INPUT"},
		{"unknown sort", "sort=sideways", "INVALID_INPUT"},
		{"non-numeric page", "page=two", "VALIDATION_ERROR"},
		{"non-numeric page size", "page_size=lots", "VALIDATION_ERROR"},
		{"page beyond int range", "page=99999999999999999999999", "INVALID_INPUT"},
		{"bad reload flag", "reload=maybe", "VALIDATION_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 5)

			rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews?"+tc.query, "", true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			s.reviews.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
		})
	}
}

func TestBoard_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{"expired session", apperrors.Unauthorized("store-api: jwt expired"), http.StatusUnauthorized, "SESSION_EXPIRED", false},
		{"not an admin", apperrors.Forbidden("store-api: forbidden"), http.StatusForbidden, "FORBIDDEN", false},
		{"store down", apperrors.ServiceUnavailable("breaker open"), http.StatusBadGateway, "REVIEWS_UNAVAILABLE", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 5)
			s.reviews.On("ListAll", mock.Anything, testToken).Return(nil, tc.err).Once()

			rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
			assert.Equal(t, tc.status, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.retryable, env.Error.Retryable)
		})
	}
}

// ============================================================================
// Delete
// ============================================================================

func TestDelete_RemovesFromBoardWithoutRefetch(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()
	s.reviews.On("Delete", mock.Anything, testToken, 3).Return(nil).Once()

	s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)

	rec := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/3", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeData[DeleteResponse](t, rec)
	assert.Equal(t, DeleteResponse{ID: 3, Notice: service.DeletedNotice}, resp)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeData[service.Board](t, rec)
	assert.Equal(t, 19, board.View.TotalCount)
	_, found := domain.FindReview(board.View.Reviews, 3)
	assert.False(t, found)
	require.NotNil(t, board.Notice)
	assert.Equal(t, service.DeletedNotice, board.Notice.Message)

	s.reviews.AssertNumberOfCalls(t, "ListAll", 1)
	s.reviews.AssertExpectations(t)
}

func TestDelete_InvalidID(t *testing.T) {
	s := newTestServer(t, 5)

	for _, id := range []string{"abc", "0", "-4"} {
		rec := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/"+id, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_PARAMETER", env.Error.Code)
	}
	s.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_UpstreamNotFound(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("Delete", mock.Anything, testToken, 42).Return(apperrors.NotFound("review", "42")).Once()

	rec := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/42", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_UpstreamFailureIsNotRetryable(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("Delete", mock.Anything, testToken, 7).
		Return(apperrors.Upstream("UPSTREAM_ERROR", "store-api: boom", true, nil)).Once()

	rec := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/7", "", true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DELETE_FAILED", env.Error.Code)
	assert.False(t, env.Error.Retryable)
}

func TestDelete_RateLimited(t *testing.T) {
	s := newTestServer(t, 1)
	s.reviews.On("Delete", mock.Anything, testToken, mock.AnythingOfType("int")).Return(nil)

	first := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/1", "", true)
	assert.Equal(t, http.StatusOK, first.Code)

	second := s.do(t, http.MethodDelete, "/api/v1/admin/reviews/2", "", true)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

// ============================================================================
// Export and logout
// ============================================================================

func TestExport_WritesFilteredWorkbook(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(20), nil).Once()

	rec := s.do(t, http.MethodGet, "/api/v1/admin/reviews/export?q=user1&sort=asc&page=2", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="reviews-`)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	// Paging is ignored: header plus user1 and user10..user19.
	require.Len(t, rows, 12)
	assert.Equal(t, "19", rows[1][0])
	assert.Equal(t, "1", rows[11][0])
	assert.Equal(t, domain.TierPoor, rows[11][3])
}

func TestLogout_DropsSnapshot(t *testing.T) {
	s := newTestServer(t, 5)
	s.reviews.On("ListAll", mock.Anything, testToken).Return(fixtureReviews(2), nil).Twice()

	s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/session/logout", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	s.do(t, http.MethodGet, "/api/v1/admin/reviews", "", true)
	s.reviews.AssertNumberOfCalls(t, "ListAll", 2)
}
