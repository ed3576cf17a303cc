package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitkip/ventory/internal/catalog"
	"github.com/vitkip/ventory/internal/ledger"
	"github.com/vitkip/ventory/internal/money"
	"github.com/vitkip/ventory/internal/obs"
)

// Service encapsulates the session lifecycle. Each mutator loads the session,
// applies the change through the ledger package and stores the result back.
// Sessions are single-user; concurrent writers are last-write-wins.
type Service struct {
	Store     *Store
	Catalog   catalog.Lookup
	Submitter *Submitter
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SeedItem is a previously persisted line used to rehydrate an edit flow.
type SeedItem struct {
	ProductRef string
	Name       string
	Quantity   int
	UnitPrice  money.Amount
}

// Create opens a new session. When seed items are provided the ledger is
// rehydrated from them: sales ceilings pin to the committed quantities since
// live stock is unknown, and append is locked unless the caller opts out.
func (s *Service) Create(ctx context.Context, direction ledger.Direction, seed []SeedItem, lockAppend bool) (Session, error) {
	if s == nil || s.Store == nil {
		return Session{}, errors.New("session service not configured")
	}
	if !direction.Valid() {
		return Session{}, fmt.Errorf("unknown direction %q", direction)
	}

	var led *ledger.Ledger
	if len(seed) > 0 {
		items := make([]ledger.LineItem, 0, len(seed))
		for _, it := range seed {
			items = append(items, ledger.LineItem{
				ProductRef: it.ProductRef,
				Name:       it.Name,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
			})
		}
		led = ledger.Rehydrate(direction, items, lockAppend)
	} else {
		led = ledger.New(direction)
		if lockAppend {
			led.LockAppend()
		}
	}

	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Direction: direction,
		CreatedAt: now,
		UpdatedAt: now,
		Ledger:    led.Snapshot(),
	}
	if err := s.Store.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	if obs.SessionsCreatedTotal != nil {
		obs.SessionsCreatedTotal.WithLabelValues(string(direction)).Inc()
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	if s == nil || s.Store == nil {
		return Session{}, errors.New("session service not configured")
	}
	return s.Store.Load(ctx, id)
}

// AddItem adds a product to the session ledger, or merges quantity into an
// existing line. Price, name and stock come from the catalog at call time; a
// purchase session may override the unit price since cost prices are editable.
func (s *Service) AddItem(ctx context.Context, id, productRef string, quantity int, unitPrice *money.Amount) (Session, error) {
	if s == nil || s.Store == nil {
		return Session{}, errors.New("session service not configured")
	}
	if s.Catalog == nil {
		return Session{}, errors.New("catalog lookup not configured")
	}
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	avail, err := s.Catalog.Availability(ctx, productRef)
	if err != nil {
		recordMutation("add", "catalog_error")
		return Session{}, err
	}
	price := avail.UnitPrice
	if unitPrice != nil {
		if sess.Direction != ledger.Purchase {
			recordMutation("add", "rejected")
			return Session{}, ledger.ErrPriceImmutable
		}
		price = *unitPrice
	}

	led := sess.Restore()
	if err := led.AddOrMerge(avail.ProductRef, avail.Name, quantity, price, avail.Stock); err != nil {
		recordMutation("add", "rejected")
		recordStockRejection(err)
		return Session{}, err
	}
	sess, err = s.persist(ctx, sess, led)
	if err != nil {
		return Session{}, err
	}
	recordMutation("add", "ok")
	return sess, nil
}

// UpdateItem changes the quantity and/or unit price of an existing line.
func (s *Service) UpdateItem(ctx context.Context, id, productRef string, quantity *int, unitPrice *money.Amount) (Session, error) {
	if s == nil || s.Store == nil {
		return Session{}, errors.New("session service not configured")
	}
	if quantity == nil && unitPrice == nil {
		return Session{}, fmt.Errorf("%w: no fields to update", ledger.ErrInvalidQuantity)
	}
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	led := sess.Restore()
	if quantity != nil {
		if err := led.SetQuantity(productRef, *quantity); err != nil {
			recordMutation("update", "rejected")
			recordStockRejection(err)
			return Session{}, err
		}
	}
	if unitPrice != nil {
		if err := led.SetUnitPrice(productRef, *unitPrice); err != nil {
			recordMutation("update", "rejected")
			return Session{}, err
		}
	}
	sess, err = s.persist(ctx, sess, led)
	if err != nil {
		return Session{}, err
	}
	recordMutation("update", "ok")
	return sess, nil
}

// RemoveItem drops a line from the ledger. Removing an absent product is a
// no-op so repeated deletes converge.
func (s *Service) RemoveItem(ctx context.Context, id, productRef string) (Session, error) {
	if s == nil || s.Store == nil {
		return Session{}, errors.New("session service not configured")
	}
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	led := sess.Restore()
	led.Remove(productRef)
	sess, err = s.persist(ctx, sess, led)
	if err != nil {
		return Session{}, err
	}
	recordMutation("remove", "ok")
	return sess, nil
}

// Quote derives the totals preview for the current ledger state without
// mutating the session.
func (s *Service) Quote(ctx context.Context, id string, policy ledger.Policy) (ledger.Totals, error) {
	if s == nil || s.Store == nil {
		return ledger.Totals{}, errors.New("session service not configured")
	}
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return ledger.Totals{}, err
	}
	return sess.Restore().Totals(policy)
}

// SubmitInput carries the header fields accompanying a submission.
type SubmitInput struct {
	Policy      ledger.Policy
	PartyRef    string
	DocDate     string
	PaymentType string
	Note        string
}

// Submit validates the ledger, recomputes totals server-side and forwards the
// flat payload to the backend exactly once. On failure the session is left
// intact so the user can resubmit; on success it is deleted.
func (s *Service) Submit(ctx context.Context, id string, in SubmitInput) (SubmitResult, error) {
	if s == nil || s.Store == nil {
		return SubmitResult{}, errors.New("session service not configured")
	}
	if s.Submitter == nil {
		return SubmitResult{}, errors.New("submitter not configured")
	}
	sess, err := s.Store.Load(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	led := sess.Restore()
	items, err := led.Serialize()
	if err != nil {
		recordSubmission(sess.Direction, "rejected")
		return SubmitResult{}, err
	}
	totals, err := led.Totals(in.Policy)
	if err != nil {
		recordSubmission(sess.Direction, "rejected")
		return SubmitResult{}, err
	}

	result, err := s.Submitter.Submit(ctx, Submission{
		Direction:   sess.Direction,
		Items:       items,
		Totals:      totals,
		PartyRef:    in.PartyRef,
		DocDate:     in.DocDate,
		PaymentType: in.PaymentType,
		Note:        in.Note,
	})
	if err != nil {
		recordSubmission(sess.Direction, "error")
		return SubmitResult{}, err
	}
	if err := s.Store.Delete(ctx, sess.ID); err != nil {
		// The backend accepted the document; a stale session is harmless
		// and will age out with its TTL.
		recordSubmission(sess.Direction, "ok")
		return result, nil
	}
	recordSubmission(sess.Direction, "ok")
	return result, nil
}

func (s *Service) persist(ctx context.Context, sess Session, led *ledger.Ledger) (Session, error) {
	sess.Ledger = led.Snapshot()
	sess.UpdatedAt = s.now().UTC()
	if err := s.Store.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func recordMutation(op, result string) {
	if obs.LedgerMutationsTotal == nil {
		return
	}
	obs.LedgerMutationsTotal.WithLabelValues(op, result).Inc()
}

func recordStockRejection(err error) {
	if obs.StockRejectionsTotal == nil || !errors.Is(err, ledger.ErrStockExceeded) {
		return
	}
	obs.StockRejectionsTotal.Inc()
}

func recordSubmission(direction ledger.Direction, result string) {
	if obs.SubmissionsTotal == nil {
		return
	}
	obs.SubmissionsTotal.WithLabelValues(string(direction), result).Inc()
}
