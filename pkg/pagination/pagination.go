package pagination

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
)

// DefaultPageSize is used when no page size, or an unsupported one, is given.
const DefaultPageSize = 15

// PageSizes lists the page sizes a list view offers.
var PageSizes = []int{15, 30, 50}

// Params holds the page and page size of a list request, as given.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PageSize: DefaultPageSize}
}

// FromRequest reads page and page_size from the query string. Absent values
// take the defaults. Values are not range checked: paging an out-of-range
// page yields nothing and an unsupported size is normalized when the page
// is cut. A value that is not an int is an error.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()
	if err := intParam(q.Get("page"), "page", &p.Page); err != nil {
		return p, err
	}
	if err := intParam(q.Get("page_size"), "page_size", &p.PageSize); err != nil {
		return p, err
	}
	return p, nil
}

func intParam(raw, name string, dst *int) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("%s must be an integer", name)).WithCause(err)
	}
	*dst = v
	return nil
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// NormalizePageSize returns n when it is supported, else DefaultPageSize.
func NormalizePageSize(n int) int {
	if ValidPageSize(n) {
		return n
	}
	return DefaultPageSize
}

// TotalPages returns max(1, ceil(count/pageSize)). An empty list still has
// one (empty) page.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := count / pageSize
	if count%pageSize > 0 {
		pages++
	}
	return max(1, pages)
}

// Bounds returns the half-open index range [start, end) of page within a list
// of count items. ok is false when the page lies outside the list.
func Bounds(count, page, pageSize int) (start, end int, ok bool) {
	if page < 1 || pageSize <= 0 || count <= 0 {
		return 0, 0, false
	}
	// Compare page numbers before multiplying so huge pages cannot overflow.
	if page-1 > (count-1)/pageSize {
		return 0, 0, false
	}
	start = (page - 1) * pageSize
	return start, start + min(pageSize, count-start), true
}

// Slice returns a copy of the requested page of items. Out-of-range pages
// yield an empty, non-nil slice.
func Slice[T any](items []T, page, pageSize int) []T {
	start, end, ok := Bounds(len(items), page, pageSize)
	if !ok {
		return []T{}
	}
	return slices.Clone(items[start:end])
}
