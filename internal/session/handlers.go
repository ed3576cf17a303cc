package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitkip/ventory/internal/catalog"
	"github.com/vitkip/ventory/internal/common"
	"github.com/vitkip/ventory/internal/ledger"
	"github.com/vitkip/ventory/internal/money"
	"github.com/vitkip/ventory/internal/status"
)

var validate = validator.New()

// Handler wires the session service to HTTP.
type Handler struct {
	Svc        *Service
	TaxRateBps int64
	Currency   string
}

type seedItemPayload struct {
	ProductRef string `json:"product_ref" validate:"required"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	UnitPrice  int64  `json:"unit_price" validate:"min=0"`
}

type createPayload struct {
	Direction string `json:"direction" validate:"required,oneof=sales purchase"`
	// Seed items rehydrate an edit flow from a persisted document. The
	// document's status may arrive as a bare integer or a {value,label}
	// object; only non-pending documents keep append locked.
	Items       []seedItemPayload  `json:"items" validate:"omitempty,dive"`
	Status      status.OrderStatus `json:"status"`
	AllowAppend bool               `json:"allow_append"`
}

// Create handles POST /sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
		return
	}
	seed := make([]SeedItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		seed = append(seed, SeedItem{
			ProductRef: it.ProductRef,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  money.Amount(it.UnitPrice),
		})
	}
	lockAppend := len(seed) > 0 && (!payload.AllowAppend || payload.Status != status.OrderPending)
	sess, err := h.Svc.Create(r.Context(), ledger.Direction(payload.Direction), seed, lockAppend)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": h.render(sess)})
}

// Get handles GET /sessions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	sess, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.render(sess))
}

type addItemPayload struct {
	ProductRef string `json:"product_ref" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	UnitPrice  *int64 `json:"unit_price" validate:"omitempty,min=0"`
}

// AddItem handles POST /sessions/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
		return
	}
	var price *money.Amount
	if payload.UnitPrice != nil {
		p := money.Amount(*payload.UnitPrice)
		price = &p
	}
	sess, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), payload.ProductRef, payload.Quantity, price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.render(sess))
}

type updateItemPayload struct {
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
	UnitPrice *int64 `json:"unit_price" validate:"omitempty,min=0"`
}

// UpdateItem handles PATCH /sessions/{id}/items/{ref}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	var payload updateItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
		return
	}
	if payload.Quantity == nil && payload.UnitPrice == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity or unit_price is required", nil)
		return
	}
	var price *money.Amount
	if payload.UnitPrice != nil {
		p := money.Amount(*payload.UnitPrice)
		price = &p
	}
	sess, err := h.Svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "ref"), payload.Quantity, price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.render(sess))
}

// RemoveItem handles DELETE /sessions/{id}/items/{ref}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	sess, err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.render(sess))
}

type quotePayload struct {
	TaxRateBps    *int64 `json:"tax_rate_bps" validate:"omitempty,min=0"`
	DiscountMode  string `json:"discount_mode" validate:"omitempty,oneof=fixed rate"`
	DiscountValue int64  `json:"discount_value" validate:"min=0"`
	Paid          int64  `json:"paid_amount" validate:"min=0"`
}

func (h *Handler) policyFrom(p quotePayload) ledger.Policy {
	taxBps := h.TaxRateBps
	if p.TaxRateBps != nil {
		taxBps = *p.TaxRateBps
	}
	mode := ledger.DiscountFixed
	if p.DiscountMode == string(ledger.DiscountRate) {
		mode = ledger.DiscountRate
	}
	return ledger.Policy{
		TaxRateBps:    taxBps,
		DiscountMode:  mode,
		DiscountValue: p.DiscountValue,
		Paid:          money.Amount(p.Paid),
	}
}

// Quote handles POST /sessions/{id}/quote. It previews totals without
// mutating the session.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	var payload quotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
		return
	}
	totals, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "id"), h.policyFrom(payload))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"totals":         totals,
		"payment_status": status.PaymentFor(totals.Due, totals.GrandTotal),
		"currency":       h.Currency,
	})
}

type submitHandlerPayload struct {
	quotePayload
	PartyRef    string `json:"party_ref"`
	DocDate     string `json:"doc_date"`
	PaymentType string `json:"payment_type"`
	Note        string `json:"note"`
}

// Submit handles POST /sessions/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "session service not configured", nil)
		return
	}
	var payload submitHandlerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
		return
	}
	result, err := h.Svc.Submit(r.Context(), chi.URLParam(r, "id"), SubmitInput{
		Policy:      h.policyFrom(payload.quotePayload),
		PartyRef:    strings.TrimSpace(payload.PartyRef),
		DocDate:     strings.TrimSpace(payload.DocDate),
		PaymentType: strings.TrimSpace(payload.PaymentType),
		Note:        payload.Note,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

func (h *Handler) render(sess Session) map[string]any {
	items := sess.Ledger.Items
	if items == nil {
		items = []ledger.LineItem{}
	}
	return map[string]any{
		"id":            sess.ID,
		"direction":     sess.Direction,
		"append_locked": sess.Ledger.AppendLocked,
		"created_at":    sess.CreatedAt,
		"updated_at":    sess.UpdatedAt,
		"items":         items,
		"currency":      h.Currency,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.WriteError(w, appErr)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", nil)
	case errors.Is(err, ledger.ErrStockExceeded):
		common.JSONError(w, http.StatusUnprocessableEntity, "STOCK_EXCEEDED", err.Error(), nil)
	case errors.Is(err, ledger.ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
	case errors.Is(err, ledger.ErrPriceImmutable):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRICE_IMMUTABLE", err.Error(), nil)
	case errors.Is(err, ledger.ErrAppendLocked):
		common.JSONError(w, http.StatusUnprocessableEntity, "APPEND_LOCKED", err.Error(), nil)
	case errors.Is(err, ledger.ErrEmptyLedger):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_LEDGER", "at least one line item is required", nil)
	case errors.Is(err, ledger.ErrPaymentExceedsTotal):
		common.JSONError(w, http.StatusUnprocessableEntity, "PAYMENT_EXCEEDS_TOTAL", err.Error(), nil)
	case errors.Is(err, ledger.ErrUnknownProduct):
		common.JSONError(w, http.StatusNotFound, "ITEM_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error(), nil)
	case errors.Is(err, ErrSubmitRejected):
		common.JSONError(w, http.StatusBadGateway, "SUBMIT_REJECTED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func validationDetails(err error) any {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	fields := make(map[string]string, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
