// Package status models the closed order and payment status enumerations.
// Upstream pages historically received these either as a bare integer or as a
// {value,label} object; decoding accepts both forms once at the boundary so
// render sites never branch on the shape again.
package status

import (
	"encoding/json"
	"fmt"

	"github.com/vitkip/ventory/internal/money"
)

// OrderStatus is the lifecycle state of an order or purchase document.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderComplete
	OrderCancelled
)

var orderLabels = map[OrderStatus]string{
	OrderPending:   "Pending",
	OrderComplete:  "Complete",
	OrderCancelled: "Cancelled",
}

// Label returns the display label for the status.
func (s OrderStatus) Label() string {
	if label, ok := orderLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// Valid reports whether the value is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderLabels[s]
	return ok
}

// MarshalJSON always emits the {value,label} object form.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return marshalEnum(int(s), s.Label())
}

// UnmarshalJSON accepts either a bare integer or a {value,label} object.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	value, err := unmarshalEnum(data)
	if err != nil {
		return err
	}
	decoded := OrderStatus(value)
	if !decoded.Valid() {
		return fmt.Errorf("status: unknown order status %d", value)
	}
	*s = decoded
	return nil
}

// PaymentStatus describes how much of a document's grand total has been paid.
type PaymentStatus int

const (
	PaymentUnpaid PaymentStatus = iota
	PaymentPartial
	PaymentPaid
)

var paymentLabels = map[PaymentStatus]string{
	PaymentUnpaid:  "Unpaid",
	PaymentPartial: "Partial",
	PaymentPaid:    "Paid",
}

// Label returns the display label for the status.
func (s PaymentStatus) Label() string {
	if label, ok := paymentLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// Valid reports whether the value is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentLabels[s]
	return ok
}

// MarshalJSON always emits the {value,label} object form.
func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return marshalEnum(int(s), s.Label())
}

// UnmarshalJSON accepts either a bare integer or a {value,label} object.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	value, err := unmarshalEnum(data)
	if err != nil {
		return err
	}
	decoded := PaymentStatus(value)
	if !decoded.Valid() {
		return fmt.Errorf("status: unknown payment status %d", value)
	}
	*s = decoded
	return nil
}

// PaymentFor derives the payment status from the outstanding due amount.
func PaymentFor(due, grandTotal money.Amount) PaymentStatus {
	switch {
	case grandTotal > 0 && due == grandTotal:
		return PaymentUnpaid
	case due > 0:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}

type enumObject struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func marshalEnum(value int, label string) ([]byte, error) {
	return json.Marshal(enumObject{Value: value, Label: label})
}

func unmarshalEnum(data []byte) (int, error) {
	var bare int
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var obj enumObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return 0, fmt.Errorf("status: expected integer or {value,label} object: %w", err)
	}
	return obj.Value, nil
}
