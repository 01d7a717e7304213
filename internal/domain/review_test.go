package domain

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newReview(id int, date string) Review {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}
	return Review{
		ID:      id,
		Date:    t,
		Rating:  4,
		Comment: "ok",
		User:    Reviewer{ID: id, Name: strPtr("User"), Handle: "user"},
		Sale:    SaleRef{ID: id, Game: &ProductRef{ID: 1, Name: "Hollow Knight"}},
	}
}

func TestProductName_FirstNonEmpty(t *testing.T) {
	r := Review{Sale: SaleRef{
		Service: &ProductRef{Name: "Boost"},
		AddOn:   &ProductRef{Name: "Skin pack"},
	}}
	assert.Equal(t, "Boost", r.ProductName())

	r.Sale.Service.Name = ""
	assert.Equal(t, "Skin pack", r.ProductName())
}

func TestProductName_Unknown(t *testing.T) {
	assert.Equal(t, UnknownProduct, Review{}.ProductName())
}

func TestUserName_Null(t *testing.T) {
	assert.Equal(t, "", Review{}.UserName())
	assert.Equal(t, "Ana", Review{User: Reviewer{Name: strPtr("Ana")}}.UserName())
}

func TestRatingTier(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{5, TierGood},
		{4, TierGood},
		{3, TierAverage},
		{2, TierPoor},
		{1, TierPoor},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Review{Rating: tc.rating}.RatingTier(), "rating %d", tc.rating)
	}
}

func TestReviewJSON_CarriesTier(t *testing.T) {
	r := newReview(9, "2024-05-01T10:00:00Z")
	r.Rating = 3

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, TierAverage, fields["tier"])
	assert.Equal(t, float64(3), fields["puntaje"])
	assert.Equal(t, "2024-05-01T10:00:00Z", fields["fecha"])

	var back Review
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestMatchesQuery_Fields(t *testing.T) {
	r := Review{
		Comment: "Great SOUNDTRACK",
		User:    Reviewer{Name: strPtr("Alice Smith"), Handle: "alice99"},
		Sale:    SaleRef{Game: &ProductRef{Name: "Celeste"}},
	}

	assert.True(t, r.matchesQuery(""))
	assert.True(t, r.matchesQuery("celes"))
	assert.True(t, r.matchesQuery("soundtrack"))
	assert.True(t, r.matchesQuery("smith"))
	assert.True(t, r.matchesQuery("e99"))
	assert.False(t, r.matchesQuery("zelda"))
}

func TestMatchesQuery_UnknownProductIsSearchable(t *testing.T) {
	r := Review{User: Reviewer{Handle: "bob"}}
	assert.True(t, r.matchesQuery("unknown"))
}
