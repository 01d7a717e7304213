package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	"github.com/augbriz/desarrollo-FE-tp/internal/export"
	"github.com/augbriz/desarrollo-FE-tp/internal/service"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httputil"
	"github.com/augbriz/desarrollo-FE-tp/pkg/pagination"
	"github.com/augbriz/desarrollo-FE-tp/pkg/validator"
)

// ReviewHandler handles HTTP requests for review moderation endpoints.
type ReviewHandler struct {
	service  *service.ModerationService
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewHandler creates a new review moderation HTTP handler.
func NewReviewHandler(svc *service.ModerationService, loc *time.Location, logger *slog.Logger) *ReviewHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReviewHandler{
		service:  svc,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// --- Request DTOs ---

// boardQuery is the raw query string of a list or export request.
type boardQuery struct {
	Query    string `query:"q" validate:"max=200"`
	Bucket   string `query:"bucket"`
	Sort     string `query:"sort"`
	PageSize string `query:"page_size" validate:"omitempty,number"`
	Page     string `query:"page" validate:"omitempty,number"`
	Reload   string `query:"reload" validate:"omitempty,boolean"`
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	ID     int    `json:"id"`
	Notice string `json:"notice"`
}

// parseFilter rebuilds the FilterState from the query string on every
// request through the same transitions the board UI uses. Each of those
// resets the page, so the requested page is applied last. A missing page is
// page 1; an unsupported page size falls back to the default when the view
// is computed.
func parseFilter(r *http.Request) (domain.FilterState, bool, error) {
	q := r.URL.Query()
	raw := boardQuery{
		Query:    q.Get("q"),
		Bucket:   q.Get("bucket"),
		Sort:     q.Get("sort"),
		PageSize: q.Get("page_size"),
		Page:     q.Get("page"),
		Reload:   q.Get("reload"),
	}
	if err := validator.Validate(raw); err != nil {
		return domain.FilterState{}, false, err
	}

	bucket, err := domain.ParseBucket(raw.Bucket)
	if err != nil {
		return domain.FilterState{}, false, apperrors.InvalidInput(err.Error())
	}
	sort, err := domain.ParseSortOrder(raw.Sort)
	if err != nil {
		return domain.FilterState{}, false, apperrors.InvalidInput(err.Error())
	}
	params, err := pagination.FromRequest(r)
	if err != nil {
		return domain.FilterState{}, false, err
	}

	fs := domain.DefaultFilterState().
		WithQuery(raw.Query).
		WithBucket(bucket).
		WithSort(sort).
		WithPageSize(params.PageSize).
		WithPage(params.Page)
	reload, _ := strconv.ParseBool(raw.Reload)
	return fs, reload, nil
}

func writeFilterError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, logger)
}

// --- Handlers ---

// Board handles GET /api/v1/admin/reviews
func (h *ReviewHandler) Board(w http.ResponseWriter, r *http.Request) {
	fs, reload, err := parseFilter(r)
	if err != nil {
		writeFilterError(w, r, err, h.logger)
		return
	}

	board, err := h.service.Board(r.Context(), fs, reload)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, board)
}

// Export handles GET /api/v1/admin/reviews/export
func (h *ReviewHandler) Export(w http.ResponseWriter, r *http.Request) {
	fs, _, err := parseFilter(r)
	if err != nil {
		writeFilterError(w, r, err, h.logger)
		return
	}

	reviews, err := h.service.Export(r.Context(), fs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReviews(&buf, reviews, h.location); err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.now().In(h.location))+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Delete handles DELETE /api/v1/admin/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, DeleteResponse{ID: id, Notice: service.DeletedNotice})
}

// Logout handles POST /api/v1/admin/session/logout
func (h *ReviewHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
