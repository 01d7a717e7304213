package domain

import "slices"

// ProductType is the kind of product a checkout is started for.
type ProductType string

const (
	ProductGame    ProductType = "juego"
	ProductService ProductType = "servicio"
	ProductAddOn   ProductType = "complemento"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return slices.Contains([]ProductType{ProductGame, ProductService, ProductAddOn}, t)
}

// Checkout session and payment status values.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// CheckoutSession is a purchase in progress.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// IDRef is a bare product reference on a sale.
type IDRef struct {
	ID int `json:"id"`
}

// Sale is the sale record created once a checkout is paid.
type Sale struct {
	ID             int    `json:"id"`
	ActivationCode string `json:"codActivacion"`
	Date           string `json:"fecha"`
	Game           *IDRef `json:"juego,omitempty"`
	Service        *IDRef `json:"servicio,omitempty"`
	AddOn          *IDRef `json:"complemento,omitempty"`
}

// Product returns the type and id of the product sold, if any.
func (s Sale) Product() (ProductType, int, bool) {
	switch {
	case s.Game != nil:
		return ProductGame, s.Game.ID, true
	case s.Service != nil:
		return ProductService, s.Service.ID, true
	case s.AddOn != nil:
		return ProductAddOn, s.AddOn.ID, true
	default:
		return "", 0, false
	}
}

// Confirmation is returned by a successful payment confirmation.
type Confirmation struct {
	Status string `json:"status"`
	Sale   Sale   `json:"venta"`
}

// SessionStatus is the state of a checkout session. SaleID is set once paid.
type SessionStatus struct {
	Status string `json:"status"`
	SaleID *int   `json:"ventaId,omitempty"`
}

// IsTerminal returns true once the session left pending.
func (s SessionStatus) IsTerminal() bool {
	return s.Status != StatusPending
}

// Preference is a payment-provider checkout preference. InitPoint is the URL
// the buyer is redirected to.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// PaymentResult is the outcome of a provider payment lookup.
type PaymentResult struct {
	Status string `json:"status"`
	Sale   *Sale  `json:"venta,omitempty"`
}
