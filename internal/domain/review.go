package domain

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// UnknownProduct is shown for a review whose sale references no product.
const UnknownProduct = "unknown product"

// Rating tiers used to colour a review's score.
const (
	TierGood    = "good"
	TierAverage = "average"
	TierPoor    = "poor"
)

// Review is a user-submitted rating and comment tied to a completed sale.
// JSON names follow the store API.
type Review struct {
	ID      int       `json:"id"`
	Date    time.Time `json:"fecha"`
	Rating  int       `json:"puntaje"`
	Comment string    `json:"detalle"`
	User    Reviewer  `json:"usuario"`
	Sale    SaleRef   `json:"venta"`
}

// Reviewer is the author of a review. Name may be null upstream.
type Reviewer struct {
	ID     int     `json:"id"`
	Name   *string `json:"nombre"`
	Handle string  `json:"nombreUsuario"`
}

// SaleRef is the purchase a review belongs to. At most one of Game, Service
// and AddOn is set.
type SaleRef struct {
	ID      int         `json:"id"`
	Game    *ProductRef `json:"juego,omitempty"`
	Service *ProductRef `json:"servicio,omitempty"`
	AddOn   *ProductRef `json:"complemento,omitempty"`
}

// ProductRef is the product side of a sale.
type ProductRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"nombre"`
}

// ProductName returns the first non-empty product name of the sale, or
// UnknownProduct.
func (r Review) ProductName() string {
	for _, p := range []*ProductRef{r.Sale.Game, r.Sale.Service, r.Sale.AddOn} {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return UnknownProduct
}

// UserName returns the reviewer's display name, or "" when absent.
func (r Review) UserName() string {
	if r.User.Name == nil {
		return ""
	}
	return *r.User.Name
}

// RatingTier classifies the rating as good (4-5), average (3) or poor.
func (r Review) RatingTier() string {
	switch {
	case r.Rating >= 4:
		return TierGood
	case r.Rating >= 3:
		return TierAverage
	default:
		return TierPoor
	}
}

// MarshalJSON renders the review with its rating tier so every client
// colours a score the same way. Decoding ignores the extra field.
func (r Review) MarshalJSON() ([]byte, error) {
	type plain Review
	return json.Marshal(struct {
		plain
		Tier string `json:"tier"`
	}{plain(r), r.RatingTier()})
}

// matchesQuery reports whether the lower-cased query occurs in the product
// name, comment, reviewer name or handle. An empty query matches.
func (r Review) matchesQuery(lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	for _, field := range []string{r.ProductName(), r.Comment, r.UserName(), r.User.Handle} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	return false
}
