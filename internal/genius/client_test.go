package genius

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMockModeWithoutCredentials(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://api.example.com"}, nil)
	if !c.MockMode() {
		t.Fatal("client without key should run in mock mode")
	}

	items, err := c.QueryPage(context.Background(), "taxes", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != PageSize {
		t.Fatalf("items = %d, want %d", len(items), PageSize)
	}
	if items[0].ID != "mock-1" || items[PageSize-1].ID != "mock-10" {
		t.Fatalf("unexpected ids %q..%q", items[0].ID, items[PageSize-1].ID)
	}

	page2, err := c.QueryPage(context.Background(), "taxes", 2)
	if err != nil {
		t.Fatal(err)
	}
	if page2[0].ID != "mock-11" {
		t.Fatalf("page 2 starts at %q, want mock-11", page2[0].ID)
	}
}

func TestQueryPageSendsFeedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody feedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"cards":[{"id":"c1","content":"first card"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:        srv.URL,
		APIKey:         "secret",
		OrganizationID: "org-7",
	}, nil)
	if c.MockMode() {
		t.Fatal("client with credentials should not be in mock mode")
	}

	items, err := c.QueryPage(context.Background(), "roadmap", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "c1" || items[0].Description != "first card" {
		t.Fatalf("items = %+v", items)
	}
	if !strings.HasPrefix(gotPath, "/hackathon/org-7/feed/") {
		t.Fatalf("path = %q, want /hackathon/org-7/feed/<session>", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody.SearchPrompt != "roadmap" || gotBody.Page != 2 || gotBody.BatchCount != PageSize {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestQueryPageDecodesCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cards":[
			{"id":"c1","content":"keep me","relevance":0.8},
			{"id":"c2","content":"   "},
			{"id":"c3"},
			{"content":"no id"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", OrganizationID: "o"}, nil)
	items, err := c.QueryPage(context.Background(), "q", 1)
	if err != nil {
		t.Fatal(err)
	}
	// Blank and contentless cards are dropped, the id-less one survives.
	if len(items) != 2 {
		t.Fatalf("items = %+v, want 2", items)
	}
	if items[0].ID != "c1" || items[0].Description != "keep me" {
		t.Fatalf("first item = %+v", items[0])
	}
	var meta struct {
		Relevance float64 `json:"relevance"`
	}
	if err := json.Unmarshal(items[0].Metadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Relevance != 0.8 {
		t.Fatalf("relevance = %v, want 0.8", meta.Relevance)
	}
	if items[1].Description != "no id" || items[1].ID == "" {
		t.Fatalf("second item = %+v, want generated id", items[1])
	}
}

func TestQueryPageRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", OrganizationID: "o"}, nil)
	if _, err := c.QueryPage(context.Background(), "q", 1); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
