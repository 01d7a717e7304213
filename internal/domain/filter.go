package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/augbriz/desarrollo-FE-tp/pkg/pagination"
)

// DateBucket names a predicate over a review's creation date.
type DateBucket string

// Supported date buckets. BucketCurrentYear is resolved against the clock at
// evaluation time.
const (
	BucketAll         DateBucket = "all"
	BucketThisMonth   DateBucket = "this-month"
	BucketLastMonth   DateBucket = "last-month"
	BucketCurrentYear DateBucket = "current-year"
	Bucket2024        DateBucket = "2024"
	Bucket2023        DateBucket = "2023"
	Bucket2022        DateBucket = "2022"
	Bucket2021        DateBucket = "2021"
	Bucket2020OrOlder DateBucket = "2020-or-earlier"
)

// Buckets lists every supported bucket in display order.
var Buckets = []DateBucket{
	BucketAll, BucketThisMonth, BucketLastMonth, BucketCurrentYear,
	Bucket2024, Bucket2023, Bucket2022, Bucket2021, Bucket2020OrOlder,
}

var fixedYears = map[DateBucket]int{
	Bucket2024: 2024,
	Bucket2023: 2023,
	Bucket2022: 2022,
	Bucket2021: 2021,
}

// ParseBucket validates s. An empty string selects BucketAll.
func ParseBucket(s string) (DateBucket, error) {
	if s == "" {
		return BucketAll, nil
	}
	for _, b := range Buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown date bucket %q", s)
}

// Matches reports whether t falls in the bucket. Month and year boundaries
// are taken in now's location.
func (b DateBucket) Matches(t, now time.Time) bool {
	t = t.In(now.Location())

	switch b {
	case BucketAll, "":
		return true
	case BucketThisMonth:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case BucketLastMonth:
		// Day 1 avoids AddDate normalising e.g. March 31 into March 3.
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return t.Year() == prev.Year() && t.Month() == prev.Month()
	case BucketCurrentYear:
		return t.Year() == now.Year()
	case Bucket2020OrOlder:
		return t.Year() <= 2020
	default:
		year, ok := fixedYears[b]
		return ok && t.Year() == year
	}
}

// SortOrder orders reviews by date.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ParseSortOrder validates s. An empty string selects SortDesc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "", SortDesc:
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// FilterState is the query, date bucket, sort order and paging a list view is
// computed from. It is a value: transitions return a new state and reset the
// page to 1 whenever the parameter they touch actually changes. The HTTP layer
// is stateless and replays the transitions from the query on each request, so
// the reset a user sees comes from the client dropping the page parameter.
type FilterState struct {
	Query    string     `json:"query"`
	Bucket   DateBucket `json:"bucket"`
	Sort     SortOrder  `json:"sort"`
	PageSize int        `json:"page_size"`
	Page     int        `json:"page"`
}

// DefaultFilterState is the state a fresh list view starts in.
func DefaultFilterState() FilterState {
	return FilterState{
		Bucket:   BucketAll,
		Sort:     SortDesc,
		PageSize: pagination.DefaultPageSize,
		Page:     1,
	}
}

func (f FilterState) WithQuery(q string) FilterState {
	if q == f.Query {
		return f
	}
	f.Query = q
	f.Page = 1
	return f
}

func (f FilterState) WithBucket(b DateBucket) FilterState {
	if b == f.Bucket {
		return f
	}
	f.Bucket = b
	f.Page = 1
	return f
}

func (f FilterState) WithSort(s SortOrder) FilterState {
	if s == f.Sort {
		return f
	}
	f.Sort = s
	f.Page = 1
	return f
}

// ToggleSort flips between newest-first and oldest-first.
func (f FilterState) ToggleSort() FilterState {
	if f.Sort == SortAsc {
		return f.WithSort(SortDesc)
	}
	return f.WithSort(SortAsc)
}

func (f FilterState) WithPageSize(n int) FilterState {
	if n == f.PageSize {
		return f
	}
	f.PageSize = n
	f.Page = 1
	return f
}

// WithPage moves to page n without touching the other parameters.
func (f FilterState) WithPage(n int) FilterState {
	f.Page = n
	return f
}

// matches applies the text and date filters.
func (f FilterState) matches(r Review, lowerQuery string, now time.Time) bool {
	return r.matchesQuery(lowerQuery) && f.Bucket.Matches(r.Date, now)
}
