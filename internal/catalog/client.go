package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vitkip/ventory/internal/money"
	"github.com/vitkip/ventory/internal/obs"
	"github.com/vitkip/ventory/internal/resilience"
)

// Client implements Lookup against the backend catalog API.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Availability fetches the current price/stock snapshot for a product.
func (c Client) Availability(ctx context.Context, productRef string) (Availability, error) {
	ref := strings.TrimSpace(productRef)
	if ref == "" {
		return Availability{}, fmt.Errorf("%w: empty product ref", ErrNotFound)
	}
	endpoint := fmt.Sprintf("%s/api/products/%s/availability", c.BaseURL, url.PathEscape(ref))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return Availability{}, err
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		recordLookup("error")
		return Availability{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		recordLookup("not_found")
		return Availability{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if resp.StatusCode != http.StatusOK {
		recordLookup("error")
		return Availability{}, fmt.Errorf("catalog: availability returned %s", resp.Status)
	}
	var payload struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		UnitPrice int64  `json:"unit_price"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		recordLookup("error")
		return Availability{}, fmt.Errorf("catalog: decode availability: %w", err)
	}
	recordLookup("ok")
	return Availability{
		ProductRef: payload.ID,
		Name:       payload.Name,
		UnitPrice:  money.Amount(payload.UnitPrice),
		Stock:      payload.Quantity,
	}, nil
}

// Search queries the backend's interactive product search endpoint. The
// caller's context flows through so superseded searches get cancelled.
func (c Client) Search(ctx context.Context, term string) ([]Product, error) {
	endpoint := fmt.Sprintf("%s/api/search/products?term=%s", c.BaseURL, url.QueryEscape(strings.TrimSpace(term)))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: search returned %s", resp.Status)
	}
	var rows []Product
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("catalog: decode search: %w", err)
	}
	return rows, nil
}

func recordLookup(result string) {
	if obs.CatalogLookupsTotal == nil {
		return
	}
	obs.CatalogLookupsTotal.WithLabelValues(result).Inc()
}
