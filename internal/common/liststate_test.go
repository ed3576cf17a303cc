package common

import (
	"net/http/httptest"
	"testing"
)

func TestParseListStateDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/products", nil)
	state := ParseListState(r, 10, "name", "code")
	if state.Page != 1 || state.PerPage != 10 || state.Direction != "asc" {
		t.Fatalf("unexpected defaults: %+v", state)
	}
	if state.Field != "" || state.Search != "" {
		t.Fatalf("expected empty field and search, got %+v", state)
	}
}

func TestParseListStateValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?search=%20mouse%20&page=3&perPage=25&field=name&direction=DESC", nil)
	state := ParseListState(r, 10, "name", "code")
	if state.Search != "mouse" {
		t.Fatalf("expected trimmed search, got %q", state.Search)
	}
	if state.Page != 3 || state.PerPage != 25 {
		t.Fatalf("unexpected paging: %+v", state)
	}
	if state.Field != "name" || state.Direction != "desc" {
		t.Fatalf("unexpected sort: %+v", state)
	}
}

func TestParseListStateRejectsUnknownField(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?field=password", nil)
	state := ParseListState(r, 10, "name", "code")
	if state.Field != "" {
		t.Fatalf("expected unknown sort field to be dropped, got %q", state.Field)
	}
}
