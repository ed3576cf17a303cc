// Package catalog consumes the backend's read-only product catalog: interactive
// search and the price/stock availability snapshot captured when a product is
// added to a ledger. The ledger never revalidates this data after the add.
package catalog

import (
	"context"
	"errors"

	"github.com/vitkip/ventory/internal/money"
)

// ErrNotFound indicates the product reference is unknown to the backend.
var ErrNotFound = errors.New("catalog: product not found")

// Product is one row of the interactive product search.
type Product struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	UnitPrice money.Amount `json:"unit_price"`
	Stock     int          `json:"quantity"`
}

// Availability is the unit price and stock reported for a single product.
type Availability struct {
	ProductRef string       `json:"product_ref"`
	Name       string       `json:"name"`
	UnitPrice  money.Amount `json:"unit_price"`
	Stock      int          `json:"stock"`
}

// Lookup is the read-only catalog contract the ledger depends on.
type Lookup interface {
	// Availability returns the current price/stock snapshot for a product.
	Availability(ctx context.Context, productRef string) (Availability, error)
	// Search performs a free-text product search. A newer call supersedes an
	// in-flight one through context cancellation on the caller's side.
	Search(ctx context.Context, term string) ([]Product, error)
}
