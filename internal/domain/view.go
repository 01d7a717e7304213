package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/augbriz/desarrollo-FE-tp/pkg/pagination"
)

// View is the page of reviews to display plus the counts the list shows
// around it.
type View struct {
	Reviews       []Review `json:"reviews"`
	Page          int      `json:"page"`
	PageSize      int      `json:"page_size"`
	TotalPages    int      `json:"total_pages"`
	FilteredCount int      `json:"filtered_count"`
	TotalCount    int      `json:"total_count"`
}

// FilterReviews returns the reviews passing fs's text and date filters,
// sorted by date in fs's order. Reviews with equal dates keep their input
// order. The input is not modified.
func FilterReviews(reviews []Review, fs FilterState, now time.Time) []Review {
	q := strings.ToLower(fs.Query)

	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if fs.matches(r, q, now) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b Review) int {
		if fs.Sort == SortAsc {
			return a.Date.Compare(b.Date)
		}
		return b.Date.Compare(a.Date)
	})
	return out
}

// ComputeView filters, sorts and pages reviews. It never fails: an
// unsupported page size falls back to the default and a page outside
// [1, TotalPages] yields no reviews.
func ComputeView(reviews []Review, fs FilterState, now time.Time) View {
	size := pagination.NormalizePageSize(fs.PageSize)
	filtered := FilterReviews(reviews, fs, now)

	return View{
		Reviews:       pagination.Slice(filtered, fs.Page, size),
		Page:          fs.Page,
		PageSize:      size,
		TotalPages:    pagination.TotalPages(len(filtered), size),
		FilteredCount: len(filtered),
		TotalCount:    len(reviews),
	}
}

// DeleteReview returns a new collection without the review with the given
// id. The input is not modified; an absent id yields an equal copy.
func DeleteReview(reviews []Review, id int) []Review {
	return slices.DeleteFunc(slices.Clone(reviews), func(r Review) bool {
		return r.ID == id
	})
}

// FindReview returns the review with id and whether it is present.
func FindReview(reviews []Review, id int) (Review, bool) {
	i := slices.IndexFunc(reviews, func(r Review) bool { return r.ID == id })
	if i < 0 {
		return Review{}, false
	}
	return reviews[i], true
}
