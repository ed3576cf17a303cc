package common

import (
	"net/http"
	"strconv"
	"strings"
)

// ListState mirrors the list-view query contract the UI sends on every table
// page: free-text search, page size, sort field and sort direction.
type ListState struct {
	Search    string `json:"search"`
	Page      int    `json:"page"`
	PerPage   int    `json:"per_page"`
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// ParseListState extracts list-view parameters from the request query,
// applying defaults and restricting the sort field to the allowed set.
func ParseListState(r *http.Request, defaultPerPage int, allowedFields ...string) ListState {
	q := r.URL.Query()
	state := ListState{
		Search:    strings.TrimSpace(q.Get("search")),
		Page:      1,
		PerPage:   defaultPerPage,
		Direction: "asc",
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		state.Page = p
	}
	if pp, err := strconv.Atoi(q.Get("perPage")); err == nil && pp > 0 {
		state.PerPage = pp
	}
	if dir := strings.ToLower(strings.TrimSpace(q.Get("direction"))); dir == "desc" {
		state.Direction = "desc"
	}
	field := strings.TrimSpace(q.Get("field"))
	for _, allowed := range allowedFields {
		if field == allowed {
			state.Field = field
			break
		}
	}
	return state
}
