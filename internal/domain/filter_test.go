package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// DateBucket Tests
// ============================================================================

func TestParseBucket(t *testing.T) {
	for _, b := range Buckets {
		got, err := ParseBucket(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	got, err := ParseBucket("")
	require.NoError(t, err)
	assert.Equal(t, BucketAll, got)

	_, err = ParseBucket("2019")
	assert.Error(t, err)
}

func TestBucket_ThisAndLastMonth(t *testing.T) {
	now := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, BucketThisMonth.Matches(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, BucketThisMonth.Matches(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), now))

	// January rolls back to December of the previous year.
	assert.True(t, BucketLastMonth.Matches(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), now))
	assert.False(t, BucketLastMonth.Matches(time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC), now))
}

func TestBucket_LastMonthAtMonthEnd(t *testing.T) {
	now := time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC)

	assert.True(t, BucketLastMonth.Matches(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, BucketLastMonth.Matches(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), now))
}

func TestBucket_UsesClockLocation(t *testing.T) {
	art := time.FixedZone("ART", -3*60*60)
	now := time.Date(2026, time.January, 20, 10, 0, 0, 0, art)

	// 01:00 UTC on Feb 1 is still Jan 31 in ART.
	review := time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC)
	assert.True(t, BucketThisMonth.Matches(review, now))
}

func TestBucket_CurrentYearFollowsClock(t *testing.T) {
	review := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, BucketCurrentYear.Matches(review, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, BucketCurrentYear.Matches(review, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBucket_CurrentYearAndFixedYearOverlap(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	review := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, BucketCurrentYear.Matches(review, now))
	assert.True(t, Bucket2024.Matches(review, now))
}

func TestBucket_FixedYears(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		bucket DateBucket
		year   int
		want   bool
	}{
		{Bucket2024, 2024, true},
		{Bucket2024, 2023, false},
		{Bucket2023, 2023, true},
		{Bucket2022, 2022, true},
		{Bucket2021, 2021, true},
		{Bucket2021, 2020, false},
		{Bucket2020OrOlder, 2020, true},
		{Bucket2020OrOlder, 2015, true},
		{Bucket2020OrOlder, 2021, false},
		{BucketAll, 1999, true},
	}
	for _, tc := range tests {
		got := tc.bucket.Matches(time.Date(tc.year, 7, 1, 0, 0, 0, 0, time.UTC), now)
		assert.Equal(t, tc.want, got, "%s / %d", tc.bucket, tc.year)
	}
}

// ============================================================================
// FilterState Tests
// ============================================================================

func TestDefaultFilterState(t *testing.T) {
	fs := DefaultFilterState()
	assert.Equal(t, "", fs.Query)
	assert.Equal(t, BucketAll, fs.Bucket)
	assert.Equal(t, SortDesc, fs.Sort)
	assert.Equal(t, 15, fs.PageSize)
	assert.Equal(t, 1, fs.Page)
}

func TestFilterState_TransitionsResetPage(t *testing.T) {
	base := DefaultFilterState().WithPage(4)

	assert.Equal(t, 1, base.WithQuery("alice").Page)
	assert.Equal(t, 1, base.WithBucket(Bucket2023).Page)
	assert.Equal(t, 1, base.WithSort(SortAsc).Page)
	assert.Equal(t, 1, base.ToggleSort().Page)
	assert.Equal(t, 1, base.WithPageSize(30).Page)
}

func TestFilterState_UnchangedValueKeepsPage(t *testing.T) {
	base := DefaultFilterState().WithPage(4)

	assert.Equal(t, 4, base.WithQuery("").Page)
	assert.Equal(t, 4, base.WithBucket(BucketAll).Page)
	assert.Equal(t, 4, base.WithSort(SortDesc).Page)
	assert.Equal(t, 4, base.WithPageSize(15).Page)
}

func TestFilterState_IsAValue(t *testing.T) {
	base := DefaultFilterState()
	_ = base.WithQuery("x").WithBucket(Bucket2022).ToggleSort()

	assert.Equal(t, DefaultFilterState(), base)
}

func TestFilterState_ToggleSort(t *testing.T) {
	fs := DefaultFilterState()
	assert.Equal(t, SortAsc, fs.ToggleSort().Sort)
	assert.Equal(t, SortDesc, fs.ToggleSort().ToggleSort().Sort)
}

func TestParseSortOrder(t *testing.T) {
	s, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, s)

	s, err = ParseSortOrder("ASC")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, s)

	_, err = ParseSortOrder("random")
	assert.Error(t, err)
}
