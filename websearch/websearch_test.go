package websearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(apiKey, url string) *Client {
	c := NewClient(apiKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.apiURL = url
	return c
}

func TestSearchParsesResults(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"results": [
			{"content": "First hit content.", "url": "https://a.example.com"},
			{"content": "", "url": "https://empty.example.com"},
			{"content": "Second hit content.", "url": "https://b.example.com"}
		]}`)
	}))
	defer srv.Close()

	snippets, err := newTestClient("key-123", srv.URL).Search(context.Background(), "latest news")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(snippets) != 2 {
		t.Fatalf("got %d snippets, want 2 (empty content skipped)", len(snippets))
	}
	if snippets[0].Content != "First hit content." || snippets[0].URL != "https://a.example.com" {
		t.Errorf("snippets[0] = %+v", snippets[0])
	}
	if snippets[1].URL != "https://b.example.com" {
		t.Errorf("snippets[1] = %+v", snippets[1])
	}

	if gotPayload["api_key"] != "key-123" {
		t.Errorf("request api_key = %v", gotPayload["api_key"])
	}
	if gotPayload["query"] != "latest news" {
		t.Errorf("request query = %v", gotPayload["query"])
	}
	if gotPayload["max_results"] != float64(3) {
		t.Errorf("request max_results = %v", gotPayload["max_results"])
	}
}

func TestSearchCapsSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results": [
			{"content": "one", "url": "u1"},
			{"content": "two", "url": "u2"},
			{"content": "three", "url": "u3"},
			{"content": "four", "url": "u4"}
		]}`)
	}))
	defer srv.Close()

	snippets, err := newTestClient("k", srv.URL).Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(snippets) != 3 {
		t.Errorf("got %d snippets, want capped at 3", len(snippets))
	}
}

func TestSearchMissingKey(t *testing.T) {
	c := newTestClient("", "http://unused.invalid")

	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient("k", srv.URL).Search(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error on upstream failure")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json at all")
	}))
	defer srv.Close()

	if _, err := newTestClient("k", srv.URL).Search(context.Background(), "q"); err == nil {
		t.Fatal("expected decode error")
	}
}
