package ledger

import "github.com/vitkip/ventory/internal/money"

// Snapshot is the JSON-serializable form of a ledger used by the session store.
// Line totals are recomputed on restore rather than trusted from the payload.
type Snapshot struct {
	Direction    Direction      `json:"direction"`
	AppendLocked bool           `json:"append_locked,omitempty"`
	Items        []LineItem     `json:"items"`
	Ceilings     map[string]int `json:"ceilings,omitempty"`
	Available    map[string]int `json:"available,omitempty"`
}

// Snapshot captures the full ledger state including local stock reservations.
func (l *Ledger) Snapshot() Snapshot {
	s := Snapshot{
		Direction:    l.direction,
		AppendLocked: l.appendLocked,
		Items:        l.Items(),
	}
	if l.direction == Sales && len(l.ceiling) > 0 {
		s.Ceilings = make(map[string]int, len(l.ceiling))
		s.Available = make(map[string]int, len(l.available))
		for ref, v := range l.ceiling {
			s.Ceilings[ref] = v
		}
		for ref, v := range l.available {
			s.Available[ref] = v
		}
	}
	return s
}

// FromSnapshot rebuilds a ledger from a stored snapshot.
func FromSnapshot(s Snapshot) *Ledger {
	l := New(s.Direction)
	l.appendLocked = s.AppendLocked
	for _, item := range s.Items {
		copied := item
		copied.LineTotal = money.MulQty(copied.UnitPrice, copied.Quantity)
		l.items[copied.ProductRef] = &copied
		l.order = append(l.order, copied.ProductRef)
	}
	for ref, v := range s.Ceilings {
		l.ceiling[ref] = v
	}
	for ref, v := range s.Available {
		l.available[ref] = v
	}
	return l
}

// Rehydrate builds a ledger from previously persisted line items, as edit
// flows do. Sales ceilings are pinned to the committed quantities since live
// stock is unknown at rehydration time, so quantities may only shrink. Append
// is locked by default; callers may pass lockAppend=false to allow new lines.
func Rehydrate(direction Direction, items []LineItem, lockAppend bool) *Ledger {
	l := New(direction)
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		copied := item
		copied.LineTotal = money.MulQty(copied.UnitPrice, copied.Quantity)
		l.items[copied.ProductRef] = &copied
		l.order = append(l.order, copied.ProductRef)
		if direction == Sales {
			l.ceiling[copied.ProductRef] = copied.Quantity
			l.available[copied.ProductRef] = 0
		}
	}
	l.appendLocked = lockAppend
	return l
}
