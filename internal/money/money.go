package money

import (
	"errors"
	"fmt"
)

// Amount is a count of minor currency units (cents, satang). All stored and
// transmitted values are integers; division by 100 happens at display time only.
type Amount int64

// ErrInvalidAmount is returned when an amount is constructed or assigned a
// negative value in a position where the domain forbids one.
var ErrInvalidAmount = errors.New("money: invalid amount")

// FromMajorUnits converts whole currency units into minor units.
func FromMajorUnits(value int64) Amount {
	return Amount(value * 100)
}

// NonNegative validates an amount used where negative values are forbidden,
// such as unit prices and payments.
func NonNegative(a Amount) (Amount, error) {
	if a < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, int64(a))
	}
	return a, nil
}

// Add returns the exact sum of two amounts.
func Add(a, b Amount) Amount {
	return a + b
}

// MulQty multiplies an amount by an integer quantity.
func MulQty(a Amount, qty int) Amount {
	return a * Amount(qty)
}

// PercentOf applies a rate expressed in basis points and rounds half-up to the
// nearest minor unit. This is the single rounding step permitted per derived
// total.
func PercentOf(a Amount, rateBps int64) Amount {
	if a == 0 || rateBps == 0 {
		return 0
	}
	num := int64(a) * rateBps
	if num >= 0 {
		return Amount((num + 5000) / 10000)
	}
	return Amount(-((-num + 5000) / 10000))
}

// Display renders the amount in major units with two decimal places.
func Display(a Amount) string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
