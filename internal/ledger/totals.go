package ledger

import (
	"fmt"

	"github.com/vitkip/ventory/internal/money"
)

// DiscountMode selects how Policy.DiscountValue is interpreted.
type DiscountMode string

const (
	// DiscountFixed treats the discount value as an absolute amount in minor units.
	DiscountFixed DiscountMode = "fixed"
	// DiscountRate treats the discount value as a rate in basis points of the subtotal.
	DiscountRate DiscountMode = "rate"
)

// Policy carries the parameters applied on top of the ledger state when
// deriving totals. Rates are basis points (700 == 7%).
type Policy struct {
	TaxRateBps    int64
	DiscountMode  DiscountMode
	DiscountValue int64
	Paid          money.Amount
}

// Totals are derived from ledger state plus a policy; they are computed on
// demand and never stored independently of their inputs.
type Totals struct {
	SubTotal   money.Amount `json:"sub_total"`
	Tax        money.Amount `json:"tax_amount"`
	Discount   money.Amount `json:"discount_amount"`
	GrandTotal money.Amount `json:"grand_total"`
	Paid       money.Amount `json:"paid_amount"`
	Due        money.Amount `json:"due_amount"`
}

// Totals derives subtotal, tax, discount, grand total and outstanding due from
// the current ledger state. It does not mutate the ledger and is idempotent
// for identical inputs. A paid amount above the grand total is a validation
// failure, not a clamp.
func (l *Ledger) Totals(p Policy) (Totals, error) {
	if _, err := money.NonNegative(p.Paid); err != nil {
		return Totals{}, err
	}

	var sub money.Amount
	for _, ref := range l.order {
		sub = money.Add(sub, l.items[ref].LineTotal)
	}

	tax := money.PercentOf(sub, p.TaxRateBps)

	var discount money.Amount
	switch p.DiscountMode {
	case DiscountRate:
		discount = money.PercentOf(sub, p.DiscountValue)
	default:
		discount = money.Amount(p.DiscountValue)
	}
	if _, err := money.NonNegative(discount); err != nil {
		return Totals{}, err
	}

	grand := sub - discount + tax
	if p.Paid > grand {
		return Totals{}, fmt.Errorf("%w: paid %d, total %d", ErrPaymentExceedsTotal, int64(p.Paid), int64(grand))
	}
	return Totals{
		SubTotal:   sub,
		Tax:        tax,
		Discount:   discount,
		GrandTotal: grand,
		Paid:       p.Paid,
		Due:        grand - p.Paid,
	}, nil
}
