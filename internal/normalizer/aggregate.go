// Package normalizer maps accumulated row properties onto product/offer
// aggregates: it routes classified values, enforces the row validity gate,
// synthesizes missing product names and produces per-file statistics.
package normalizer

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the product side of the output aggregate: the fixed fields plus
// an open-ended dynamic property map.
type Product struct {
	ID   uuid.UUID
	Name string
	// Code is the product identifier code (EAN).
	Code       string
	Properties map[string]string

	// propOrder preserves dynamic-property insertion order for
	// deterministic name synthesis.
	propOrder []string
}

// SetProperty records a dynamic product property, preserving insertion order.
func (p *Product) SetProperty(key, value string) {
	if _, exists := p.Properties[key]; !exists {
		p.propOrder = append(p.propOrder, key)
	}
	p.Properties[key] = value
}

// Offer is the offer-on-product side of the aggregate.
type Offer struct {
	ID          uuid.UUID
	Price       decimal.Decimal
	Currency    string
	Quantity    int
	Description string
	Properties  map[string]string
}

// SetProperty records a dynamic offer property.
func (o *Offer) SetProperty(key, value string) {
	o.Properties[key] = value
}

// Aggregate is one accepted row's output: a product paired with an offer on
// it. Created fresh per row; discarded if validation fails.
type Aggregate struct {
	Product *Product
	Offer   *Offer
}

// NewAggregate creates an empty aggregate with fresh IDs.
func NewAggregate() *Aggregate {
	return &Aggregate{
		Product: &Product{
			ID:         uuid.New(),
			Properties: make(map[string]string),
		},
		Offer: &Offer{
			ID:         uuid.New(),
			Properties: make(map[string]string),
		},
	}
}

// Accept is the final acceptance check for an offer to be persisted: the
// product is present, the identifier code is non-empty, and price and
// quantity are strictly positive. Rows failing this are counted as skipped,
// not as errors.
func Accept(a *Aggregate) bool {
	if a == nil || a.Product == nil || a.Offer == nil {
		return false
	}
	return a.Product.Code != "" &&
		a.Offer.Price.IsPositive() &&
		a.Offer.Quantity > 0
}
