package ledger

import (
	"errors"
	"fmt"

	"github.com/vitkip/ventory/internal/money"
)

// Direction states whether a ledger consumes stock (orders) or produces it
// (purchases). Sales ledgers enforce a per-product stock ceiling and keep unit
// prices fixed after the first add; purchase ledgers accept any positive
// quantity and allow price edits.
type Direction string

const (
	// Sales decrements stock and is bounded by the availability reported at add time.
	Sales Direction = "sales"
	// Purchase increases stock; quantities are unbounded and prices editable.
	Purchase Direction = "purchase"
)

// Valid reports whether the direction is one of the known values.
func (d Direction) Valid() bool {
	return d == Sales || d == Purchase
}

var (
	// ErrInvalidQuantity rejects quantities below 1. Values are never coerced.
	ErrInvalidQuantity = errors.New("ledger: quantity must be at least 1")
	// ErrStockExceeded rejects sales quantities above the available stock.
	ErrStockExceeded = errors.New("ledger: requested quantity exceeds available stock")
	// ErrPriceImmutable rejects price edits on sales lines.
	ErrPriceImmutable = errors.New("ledger: unit price is fixed on sales lines")
	// ErrAppendLocked rejects new products while the ledger is in adjust-only mode.
	ErrAppendLocked = errors.New("ledger: adding new products is disabled")
	// ErrEmptyLedger rejects serialization of a ledger with no line items.
	ErrEmptyLedger = errors.New("ledger: at least one line item is required")
	// ErrPaymentExceedsTotal rejects paid amounts greater than the grand total.
	ErrPaymentExceedsTotal = errors.New("ledger: paid amount exceeds grand total")
	// ErrUnknownProduct is returned when adjusting a product that is not present.
	ErrUnknownProduct = errors.New("ledger: product not present")
)

// LineItem is one product entry. LineTotal is derived from quantity and unit
// price and recomputed on every change; it is never a source of truth.
type LineItem struct {
	ProductRef string       `json:"product_ref"`
	Name       string       `json:"name,omitempty"`
	Quantity   int          `json:"quantity"`
	UnitPrice  money.Amount `json:"unit_price"`
	LineTotal  money.Amount `json:"line_total"`
}

// Ledger is an insertion-ordered collection of line items keyed by product
// reference, at most one entry per product. It is a plain in-memory structure
// scoped to a single form session; no operation performs I/O.
type Ledger struct {
	direction    Direction
	appendLocked bool
	order        []string
	items        map[string]*LineItem
	// ceiling holds the stock reported when a product was first added,
	// available what remains after local reservations. Sales direction only.
	ceiling   map[string]int
	available map[string]int
}

// New returns an empty ledger for the given direction.
func New(direction Direction) *Ledger {
	return &Ledger{
		direction: direction,
		items:     map[string]*LineItem{},
		ceiling:   map[string]int{},
		available: map[string]int{},
	}
}

// LockAppend switches the ledger into adjust-only mode: existing lines may be
// changed or removed but no new product can be added. Used by edit flows that
// rehydrate a previously submitted document.
func (l *Ledger) LockAppend() {
	l.appendLocked = true
}

// Direction returns the ledger direction.
func (l *Ledger) Direction() Direction { return l.direction }

// AppendLocked reports whether new products are rejected.
func (l *Ledger) AppendLocked() bool { return l.appendLocked }

// Len returns the number of line items.
func (l *Ledger) Len() int { return len(l.items) }

// Empty reports whether the ledger holds no line items.
func (l *Ledger) Empty() bool { return len(l.items) == 0 }

// AddOrMerge appends a new line item or merges the quantity into an existing
// entry for the same product. For sales ledgers the stock argument is the
// availability reported by the catalog at call time; it becomes the ceiling on
// first add and is ignored on merges, which consume the remaining local
// reservation. Failures leave the ledger unchanged.
func (l *Ledger) AddOrMerge(productRef, name string, quantity int, unitPrice money.Amount, stock int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if _, err := money.NonNegative(unitPrice); err != nil {
		return err
	}

	if item, ok := l.items[productRef]; ok {
		if l.direction == Sales {
			if quantity > l.available[productRef] {
				return fmt.Errorf("%w: %s has %d available", ErrStockExceeded, productRef, l.available[productRef])
			}
			l.available[productRef] -= quantity
		}
		item.Quantity += quantity
		item.LineTotal = money.MulQty(item.UnitPrice, item.Quantity)
		return nil
	}

	if l.appendLocked {
		return fmt.Errorf("%w: %s", ErrAppendLocked, productRef)
	}
	if l.direction == Sales {
		if quantity > stock {
			return fmt.Errorf("%w: %s has %d available", ErrStockExceeded, productRef, stock)
		}
		l.ceiling[productRef] = stock
		l.available[productRef] = stock - quantity
	}
	l.items[productRef] = &LineItem{
		ProductRef: productRef,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		LineTotal:  money.MulQty(unitPrice, quantity),
	}
	l.order = append(l.order, productRef)
	return nil
}

// SetQuantity replaces the quantity of an existing entry. Sales direction
// rejects quantities above the original ceiling; quantities below 1 are
// rejected in either direction, never coerced to 1 or to removal.
func (l *Ledger) SetQuantity(productRef string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	item, ok := l.items[productRef]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productRef)
	}
	if l.direction == Sales {
		// Stock this entry may claim: what remains plus what it already holds.
		if quantity > l.available[productRef]+item.Quantity {
			return fmt.Errorf("%w: %s has %d available", ErrStockExceeded, productRef, l.available[productRef]+item.Quantity)
		}
		l.available[productRef] += item.Quantity - quantity
	}
	item.Quantity = quantity
	item.LineTotal = money.MulQty(item.UnitPrice, item.Quantity)
	return nil
}

// SetUnitPrice replaces the unit price of an existing entry. Only purchase
// ledgers allow price edits; sales prices are snapshotted when added.
func (l *Ledger) SetUnitPrice(productRef string, unitPrice money.Amount) error {
	if l.direction != Purchase {
		return ErrPriceImmutable
	}
	if _, err := money.NonNegative(unitPrice); err != nil {
		return err
	}
	item, ok := l.items[productRef]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productRef)
	}
	item.UnitPrice = unitPrice
	item.LineTotal = money.MulQty(unitPrice, item.Quantity)
	return nil
}

// Remove deletes an entry, returning its reserved quantity to the local stock
// view. Removing an absent product is a no-op.
func (l *Ledger) Remove(productRef string) {
	if _, ok := l.items[productRef]; !ok {
		return
	}
	delete(l.items, productRef)
	delete(l.ceiling, productRef)
	delete(l.available, productRef)
	for i, ref := range l.order {
		if ref == productRef {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, 0, len(l.order))
	for _, ref := range l.order {
		out = append(out, *l.items[ref])
	}
	return out
}

// Available returns the locally tracked remaining stock for a sales-direction
// product. It reports zero for unknown products.
func (l *Ledger) Available(productRef string) int {
	return l.available[productRef]
}

// Serialize produces the flat line-item list sent to the backend on submit.
// An empty ledger fails before any network call is attempted.
func (l *Ledger) Serialize() ([]LineItem, error) {
	if l.Empty() {
		return nil, ErrEmptyLedger
	}
	return l.Items(), nil
}
