package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vitkip/ventory/internal/catalog"
	"github.com/vitkip/ventory/internal/ledger"
	"github.com/vitkip/ventory/internal/money"
	"github.com/vitkip/ventory/internal/session"
)

type fakeCatalog struct {
	products map[string]catalog.Availability
}

func (f fakeCatalog) Availability(_ context.Context, ref string) (catalog.Availability, error) {
	if av, ok := f.products[ref]; ok {
		return av, nil
	}
	return catalog.Availability{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, ref)
}

func (f fakeCatalog) Search(context.Context, string) ([]catalog.Product, error) {
	return nil, errors.New("not implemented")
}

func newTestService(t *testing.T, lookup catalog.Lookup, submitter *session.Submitter) (*session.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &session.Service{
		Store:     &session.Store{R: rdb, TTL: time.Hour},
		Catalog:   lookup,
		Submitter: submitter,
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}, mr
}

func defaultCatalog() fakeCatalog {
	return fakeCatalog{products: map[string]catalog.Availability{
		"p-1": {ProductRef: "p-1", Name: "Paper A4", UnitPrice: 500, Stock: 5},
		"p-2": {ProductRef: "p-2", Name: "Pen", UnitPrice: 120, Stock: 100},
	}}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, ledger.Sales, created.Direction)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)
	require.Empty(t, loaded.Ledger.Items)
}

func TestGetUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestAddItemMergesAndReserves(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)

	sess, err = svc.AddItem(ctx, sess.ID, "p-1", 3, nil)
	require.NoError(t, err)
	require.Len(t, sess.Ledger.Items, 1)
	require.Equal(t, 3, sess.Ledger.Items[0].Quantity)
	require.EqualValues(t, 1500, sess.Ledger.Items[0].LineTotal)

	// Second add merges into the same line and consumes the reservation.
	sess, err = svc.AddItem(ctx, sess.ID, "p-1", 2, nil)
	require.NoError(t, err)
	require.Len(t, sess.Ledger.Items, 1)
	require.Equal(t, 5, sess.Ledger.Items[0].Quantity)

	_, err = svc.AddItem(ctx, sess.ID, "p-1", 1, nil)
	require.ErrorIs(t, err, ledger.ErrStockExceeded)

	// Rejection must not leak into stored state.
	loaded, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 5, loaded.Ledger.Items[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, sess.ID, "missing", 1, nil)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddItemPriceOverride(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	override := money.Amount(450)

	purchase, err := svc.Create(ctx, ledger.Purchase, nil, false)
	require.NoError(t, err)
	purchase, err = svc.AddItem(ctx, purchase.ID, "p-1", 10, &override)
	require.NoError(t, err)
	require.EqualValues(t, 450, purchase.Ledger.Items[0].UnitPrice)

	sales, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, sales.ID, "p-1", 1, &override)
	require.ErrorIs(t, err, ledger.ErrPriceImmutable)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	sess, err = svc.AddItem(ctx, sess.ID, "p-1", 3, nil)
	require.NoError(t, err)

	qty := 5
	sess, err = svc.UpdateItem(ctx, sess.ID, "p-1", &qty, nil)
	require.NoError(t, err)
	require.Equal(t, 5, sess.Ledger.Items[0].Quantity)

	tooMany := 6
	_, err = svc.UpdateItem(ctx, sess.ID, "p-1", &tooMany, nil)
	require.ErrorIs(t, err, ledger.ErrStockExceeded)

	sess, err = svc.RemoveItem(ctx, sess.ID, "p-1")
	require.NoError(t, err)
	require.Empty(t, sess.Ledger.Items)

	// Removal restores stock, so the full ceiling is addable again.
	sess, err = svc.AddItem(ctx, sess.ID, "p-1", 5, nil)
	require.NoError(t, err)
	require.Equal(t, 5, sess.Ledger.Items[0].Quantity)
}

func TestRehydratedSessionLocksAppend(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	seed := []session.SeedItem{{ProductRef: "p-1", Name: "Paper A4", Quantity: 4, UnitPrice: 500}}
	sess, err := svc.Create(ctx, ledger.Sales, seed, true)
	require.NoError(t, err)
	require.True(t, sess.Ledger.AppendLocked)
	require.Len(t, sess.Ledger.Items, 1)

	_, err = svc.AddItem(ctx, sess.ID, "p-2", 1, nil)
	require.ErrorIs(t, err, ledger.ErrAppendLocked)

	// Committed quantities pin the ceiling: shrinking is allowed, growth is not.
	smaller := 2
	_, err = svc.UpdateItem(ctx, sess.ID, "p-1", &smaller, nil)
	require.NoError(t, err)
	larger := 5
	_, err = svc.UpdateItem(ctx, sess.ID, "p-1", &larger, nil)
	require.ErrorIs(t, err, ledger.ErrStockExceeded)
}

func TestQuote(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, sess.ID, "p-1", 3, nil)
	require.NoError(t, err)

	totals, err := svc.Quote(ctx, sess.ID, ledger.Policy{TaxRateBps: 700})
	require.NoError(t, err)
	require.EqualValues(t, 1500, totals.SubTotal)
	require.EqualValues(t, 105, totals.Tax)
	require.EqualValues(t, 1605, totals.GrandTotal)
	require.EqualValues(t, 1605, totals.Due)

	_, err = svc.Quote(ctx, sess.ID, ledger.Policy{Paid: 2000})
	require.ErrorIs(t, err, ledger.ErrPaymentExceedsTotal)
}

func TestSubmitForwardsOnceAndDeletes(t *testing.T) {
	var calls int
	var got map[string]any
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":"SO-1001","status":"accepted"}`))
	}))
	defer backend.Close()

	svc, _ := newTestService(t, defaultCatalog(), &session.Submitter{
		URL:    backend.URL,
		Client: backend.Client(),
		Logger: zerolog.Nop(),
	})
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, sess.ID, "p-1", 3, nil)
	require.NoError(t, err)

	result, err := svc.Submit(ctx, sess.ID, session.SubmitInput{
		Policy:      ledger.Policy{TaxRateBps: 700, Paid: 1605},
		PartyRef:    "cust-9",
		PaymentType: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "SO-1001", result.Reference)

	require.EqualValues(t, 1500, got["sub_total"])
	require.EqualValues(t, 105, got["tax_amount"])
	require.EqualValues(t, 1605, got["grand_total"])
	require.EqualValues(t, 1605, got["paid_amount"])
	require.Equal(t, "sales", got["direction"])

	// Line items travel as a JSON-encoded string.
	itemsField, ok := got["items"].(string)
	require.True(t, ok)
	var items []ledger.LineItem
	require.NoError(t, json.Unmarshal([]byte(itemsField), &items))
	require.Len(t, items, 1)
	require.Equal(t, "p-1", items[0].ProductRef)

	_, err = svc.Get(ctx, sess.ID)
	require.ErrorIs(t, err, session.ErrNotFound, "submitted session should be deleted")
}

func TestSubmitEmptyLedger(t *testing.T) {
	svc, _ := newTestService(t, defaultCatalog(), &session.Submitter{URL: "http://unused", Logger: zerolog.Nop()})
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sess.ID, session.SubmitInput{})
	require.ErrorIs(t, err, ledger.ErrEmptyLedger)
}

func TestSubmitFailureKeepsSession(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	svc, _ := newTestService(t, defaultCatalog(), &session.Submitter{
		URL:    backend.URL,
		Client: backend.Client(),
		Logger: zerolog.Nop(),
	})
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, sess.ID, "p-1", 2, nil)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sess.ID, session.SubmitInput{})
	require.ErrorIs(t, err, session.ErrSubmitRejected)

	loaded, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Ledger.Items, 1, "failed submission must leave the session editable")
}

func TestSessionExpires(t *testing.T) {
	svc, mr := newTestService(t, defaultCatalog(), nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, ledger.Sales, nil, false)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.Get(ctx, sess.ID)
	require.ErrorIs(t, err, session.ErrNotFound)
}
