package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tawa-dev/TalentVerify/internal/token"
)

func TestListCompaniesEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/companies/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %q", got)
		}
		if got := r.URL.Query().Get("search"); got != "acme" {
			t.Errorf("expected search=acme, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 41,
			"next": "http://api/companies/?page=3",
			"previous": "http://api/companies/?page=1",
			"results": [{"id": 21, "name": "Acme Holdings"}]
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	c := New(server.URL, token.NewMemoryStore())

	page, err := c.ListCompanies(context.Background(), ListParams{Page: 2, Search: "acme"})
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	if page.Count != 41 {
		t.Fatalf("expected count 41, got %d", page.Count)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages of 20, got %d", page.TotalPages)
	}
	if len(page.Results) != 1 || page.Results[0].Name != "Acme Holdings" {
		t.Fatalf("unexpected results: %+v", page.Results)
	}
	if page.Next == "" || page.Previous == "" {
		t.Fatalf("expected continuation URLs, got %q %q", page.Next, page.Previous)
	}
}

func TestListCompaniesBareArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/companies/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Acme Holdings"}, {"id": 2, "name": "Beta Ltd"}]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	c := New(server.URL, token.NewMemoryStore())

	page, err := c.ListCompanies(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 2 {
		t.Fatalf("expected 2 companies, got count=%d results=%d", page.Count, len(page.Results))
	}
	if page.Next != "" || page.Previous != "" {
		t.Fatalf("bare array has no continuation URLs, got %q %q", page.Next, page.Previous)
	}
	if page.TotalPages != 1 {
		t.Fatalf("expected 1 page, got %d", page.TotalPages)
	}
}

func TestEmptyListParams(t *testing.T) {
	if q := (ListParams{}).query(); q != "" {
		t.Fatalf("empty params must add no query string, got %q", q)
	}
	q := ListParams{Page: 1, PageSize: 10, Ordering: "-name"}.query()
	if q != "?ordering=-name&page=1&page_size=10" {
		t.Fatalf("unexpected query: %q", q)
	}
}
