package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitkip/ventory/internal/ledger"
)

// ErrSubmitRejected indicates the backend refused the submission payload.
var ErrSubmitRejected = errors.New("submission rejected by backend")

// Submission is everything forwarded to the backend for one document.
type Submission struct {
	Direction   ledger.Direction
	Items       []ledger.LineItem
	Totals      ledger.Totals
	PartyRef    string
	DocDate     string
	PaymentType string
	Note        string
}

// SubmitResult is the backend's acknowledgement.
type SubmitResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Submitter posts finished documents to the backend. Submission is
// deliberately single-shot: no retries, no circuit breaker. A failed attempt
// surfaces to the user and the session stays editable for resubmission.
type Submitter struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	Logger  zerolog.Logger
}

// submitPayload is the flat document shape the backend ingests. The line
// items travel as a JSON-encoded string field, matching the backend's form
// contract; amounts are scalar minor-unit integers.
type submitPayload struct {
	Direction      string `json:"direction"`
	PartyRef       string `json:"party_ref,omitempty"`
	DocDate        string `json:"doc_date,omitempty"`
	PaymentType    string `json:"payment_type,omitempty"`
	Note           string `json:"note,omitempty"`
	Items          string `json:"items"`
	SubTotal       int64  `json:"sub_total"`
	TaxAmount      int64  `json:"tax_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	GrandTotal     int64  `json:"grand_total"`
	PaidAmount     int64  `json:"paid_amount"`
}

// Submit performs the single POST. The caller decides what to do with the
// session afterwards.
func (sb *Submitter) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	if sb == nil || sb.URL == "" {
		return SubmitResult{}, errors.New("submitter not configured")
	}
	client := sb.Client
	if client == nil {
		client = http.DefaultClient
	}

	encodedItems, err := json.Marshal(sub.Items)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode line items: %w", err)
	}
	body, err := json.Marshal(submitPayload{
		Direction:      string(sub.Direction),
		PartyRef:       sub.PartyRef,
		DocDate:        sub.DocDate,
		PaymentType:    sub.PaymentType,
		Note:           sub.Note,
		Items:          string(encodedItems),
		SubTotal:       int64(sub.Totals.SubTotal),
		TaxAmount:      int64(sub.Totals.Tax),
		DiscountAmount: int64(sub.Totals.Discount),
		GrandTotal:     int64(sub.Totals.GrandTotal),
		PaidAmount:     int64(sub.Totals.Paid),
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode submission: %w", err)
	}

	callCtx := ctx
	if sb.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, sb.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, sb.URL, bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		sb.Logger.Error().Err(err).Str("direction", string(sub.Direction)).Msg("submission failed")
		return SubmitResult{}, fmt.Errorf("submit document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		sb.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("direction", string(sub.Direction)).
			Str("body", string(snippet)).
			Msg("submission rejected")
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrSubmitRejected, resp.Status)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		// Some backends acknowledge with an empty body. Accept that.
		sb.Logger.Debug().Err(err).Msg("submission acknowledged without parseable body")
	}
	return result, nil
}
