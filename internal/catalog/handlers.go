package catalog

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/vitkip/ventory/internal/common"
)

// Handler exposes the product search proxy used by the ledger forms.
type Handler struct {
	lookup Lookup
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Lookup Lookup
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{lookup: cfg.Lookup}
}

const searchDefaultPerPage = 20

// SearchProducts handles GET /api/v1/search/products. The search term comes
// from `term` (the picker's contract) or the list-view `search` param; paging
// and sorting follow the standard list-state query contract.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	if h.lookup == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog lookup not configured", nil)
		return
	}
	state := common.ParseListState(r, searchDefaultPerPage, "name", "code")
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		term = state.Search
	}
	if term == "" {
		common.JSON(w, http.StatusOK, map[string]any{"data": []Product{}})
		return
	}
	rows, err := h.lookup.Search(r.Context(), term)
	if err != nil {
		if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
			// The client abandoned this search, typically because a newer
			// keystroke superseded it. Nothing useful to write back.
			return
		}
		common.JSONError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "product search is temporarily unavailable", nil)
		return
	}
	rows = applyListState(rows, state)
	if rows == nil {
		rows = []Product{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// applyListState sorts and pages the result set locally. The backend search
// endpoint knows only the term; presentation order is this service's concern.
func applyListState(rows []Product, state common.ListState) []Product {
	switch state.Field {
	case "name":
		sort.SliceStable(rows, func(i, j int) bool {
			if state.Direction == "desc" {
				return rows[i].Name > rows[j].Name
			}
			return rows[i].Name < rows[j].Name
		})
	case "code":
		sort.SliceStable(rows, func(i, j int) bool {
			if state.Direction == "desc" {
				return rows[i].Code > rows[j].Code
			}
			return rows[i].Code < rows[j].Code
		})
	}
	if state.PerPage <= 0 {
		return rows
	}
	start := (state.Page - 1) * state.PerPage
	if start >= len(rows) {
		return []Product{}
	}
	end := start + state.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
