package ledger

import (
	"errors"
	"testing"

	"github.com/vitkip/ventory/internal/money"
)

func TestAddComputesLineTotal(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 3, 500, 10); err != nil {
		t.Fatalf("add: %v", err)
	}
	items := l.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].LineTotal != 1500 {
		t.Fatalf("expected line total 1500, got %d", items[0].LineTotal)
	}
	totals, err := l.Totals(Policy{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.SubTotal != 1500 {
		t.Fatalf("expected subtotal 1500, got %d", totals.SubTotal)
	}
}

func TestAddMergesDuplicateProduct(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 2, 500, 10); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := l.AddOrMerge("P1", "Widget", 3, 500, 10); err != nil {
		t.Fatalf("merge: %v", err)
	}
	items := l.Items()
	if len(items) != 1 {
		t.Fatalf("expected single merged entry, got %d", len(items))
	}
	if items[0].Quantity != 5 || items[0].LineTotal != 2500 {
		t.Fatalf("unexpected merged entry: %+v", items[0])
	}
}

func TestAddRejectsStockExceeded(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 3, 500, 5); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := l.AddOrMerge("P1", "Widget", 3, 500, 5)
	if !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
	// Rejected call must not mutate the ledger.
	items := l.Items()
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity to stay 3, got %d", items[0].Quantity)
	}
	if l.Available("P1") != 2 {
		t.Fatalf("expected 2 still available, got %d", l.Available("P1"))
	}
}

func TestPurchaseIgnoresStockCeiling(t *testing.T) {
	l := New(Purchase)
	if err := l.AddOrMerge("P1", "Widget", 1000, 500, 0); err != nil {
		t.Fatalf("purchase add: %v", err)
	}
	if err := l.SetQuantity("P1", 5000); err != nil {
		t.Fatalf("purchase set quantity: %v", err)
	}
}

func TestRemoveRestoresStockAndRoundTrips(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 4, 500, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := l.Items()
	l.Remove("P1")
	if !l.Empty() {
		t.Fatal("expected empty ledger after remove")
	}
	if err := l.AddOrMerge("P1", "Widget", 4, 500, 5); err != nil {
		t.Fatalf("re-add after remove: %v", err)
	}
	after := l.Items()
	if len(after) != 1 || after[0] != before[0] {
		t.Fatalf("round-trip mismatch: before %+v after %+v", before, after)
	}
	if l.Available("P1") != 1 {
		t.Fatalf("expected 1 available after re-add, got %d", l.Available("P1"))
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	l := New(Sales)
	l.Remove("missing")
	if !l.Empty() {
		t.Fatal("expected ledger to stay empty")
	}
}

func TestSetQuantityBounds(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 3, 500, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.SetQuantity("P1", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for zero, got %v", err)
	}
	if err := l.SetQuantity("P1", -2); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for negative, got %v", err)
	}
	// Entry may claim its own reservation plus the remainder.
	if err := l.SetQuantity("P1", 5); err != nil {
		t.Fatalf("expected quantity 5 within ceiling, got %v", err)
	}
	if err := l.SetQuantity("P1", 6); !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded above ceiling, got %v", err)
	}
	if l.Items()[0].Quantity != 5 {
		t.Fatalf("rejected edit must not apply, got quantity %d", l.Items()[0].Quantity)
	}
}

func TestSetQuantityShrinkReleasesStock(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 5, 500, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.SetQuantity("P1", 2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if l.Available("P1") != 3 {
		t.Fatalf("expected 3 released back, got %d", l.Available("P1"))
	}
	if l.Items()[0].LineTotal != 1000 {
		t.Fatalf("expected line total recomputed to 1000, got %d", l.Items()[0].LineTotal)
	}
}

func TestSetUnitPriceDirectionRules(t *testing.T) {
	sales := New(Sales)
	if err := sales.AddOrMerge("P1", "Widget", 1, 500, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sales.SetUnitPrice("P1", 600); !errors.Is(err, ErrPriceImmutable) {
		t.Fatalf("expected ErrPriceImmutable on sales, got %v", err)
	}

	purchase := New(Purchase)
	if err := purchase.AddOrMerge("P1", "Widget", 2, 500, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := purchase.SetUnitPrice("P1", -1); !errors.Is(err, money.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := purchase.SetUnitPrice("P1", 700); err != nil {
		t.Fatalf("price edit: %v", err)
	}
	if purchase.Items()[0].LineTotal != 1400 {
		t.Fatalf("expected line total 1400, got %d", purchase.Items()[0].LineTotal)
	}
}

func TestAppendLockedAllowsAdjustOnly(t *testing.T) {
	l := Rehydrate(Sales, []LineItem{
		{ProductRef: "P1", Name: "Widget", Quantity: 3, UnitPrice: 500},
	}, true)
	if err := l.AddOrMerge("P2", "Gadget", 1, 100, 10); !errors.Is(err, ErrAppendLocked) {
		t.Fatalf("expected ErrAppendLocked, got %v", err)
	}
	// Shrinking and removing stay allowed.
	if err := l.SetQuantity("P1", 2); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	// Growing beyond the rehydrated quantity is rejected, live stock unknown.
	if err := l.SetQuantity("P1", 4); !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
	l.Remove("P1")
	if !l.Empty() {
		t.Fatal("expected empty ledger")
	}
}

func TestInsertionOrderIsStable(t *testing.T) {
	l := New(Purchase)
	refs := []string{"P3", "P1", "P2"}
	for _, ref := range refs {
		if err := l.AddOrMerge(ref, "", 1, 100, 0); err != nil {
			t.Fatalf("add %s: %v", ref, err)
		}
	}
	l.Remove("P1")
	if err := l.AddOrMerge("P1", "", 1, 100, 0); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	items := l.Items()
	got := []string{items[0].ProductRef, items[1].ProductRef, items[2].ProductRef}
	want := []string{"P3", "P2", "P1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", got, want)
		}
	}
}

func TestSerializeEmptyFails(t *testing.T) {
	l := New(Sales)
	if _, err := l.Serialize(); !errors.Is(err, ErrEmptyLedger) {
		t.Fatalf("expected ErrEmptyLedger, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New(Sales)
	if err := l.AddOrMerge("P1", "Widget", 3, 500, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	restored := FromSnapshot(l.Snapshot())
	if restored.Direction() != Sales || restored.Len() != 1 {
		t.Fatalf("unexpected restored ledger: %+v", restored.Items())
	}
	if restored.Available("P1") != 2 {
		t.Fatalf("expected reservation carried over, got %d", restored.Available("P1"))
	}
	// Remaining stock is still enforced after restore.
	if err := restored.AddOrMerge("P1", "Widget", 3, 500, 5); !errors.Is(err, ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
}
