package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomal-majumder/news-rag-agent/config"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Example News</title>
	<item>
		<title>Chancellor resigns</title>
		<link>https://news.example.com/a</link>
		<description>The chancellor stepped down this morning.</description>
		<pubDate>Sun, 01 Jun 2025 08:00:00 GMT</pubDate>
	</item>
	<item>
		<title></title>
		<link>https://news.example.com/missing-title</link>
	</item>
	<item>
		<title>Markets rally</title>
		<link>https://news.example.com/b</link>
		<description>Stocks rose sharply.</description>
	</item>
</channel>
</rss>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPoll(t *testing.T) {
	srv := serveFeed(t, testRSS)
	s := NewSource([]config.Feed{{Source: "Example News", URL: srv.URL}}, discardLogger())

	items, err := s.Poll(context.Background(), 200)
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (entry without title skipped)", len(items))
	}

	first := items[0]
	if first.Title != "Chancellor resigns" || first.URL != "https://news.example.com/a" {
		t.Errorf("items[0] = %+v", first)
	}
	if first.Source != "Example News" {
		t.Errorf("source = %q", first.Source)
	}
	if first.Summary != "The chancellor stepped down this morning." {
		t.Errorf("summary = %q", first.Summary)
	}
	want := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("published = %v, want %v", first.PublishedAt, want)
	}

	// An entry without a date falls back to the poll time.
	if items[1].PublishedAt.IsZero() {
		t.Error("missing pubDate should not produce a zero time")
	}
}

func TestPollCapsItems(t *testing.T) {
	var body string
	for i := 0; i < 10; i++ {
		body += fmt.Sprintf(`<item><title>Story %d</title><link>https://news.example.com/%d</link></item>`, i, i)
	}
	srv := serveFeed(t, `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>`+body+`</channel></rss>`)
	s := NewSource([]config.Feed{{Source: "T", URL: srv.URL}}, discardLogger())

	items, err := s.Poll(context.Background(), 4)
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("got %d items, want capped at 4", len(items))
	}
}

func TestPollSkipsFailingFeed(t *testing.T) {
	bad := serveFeed(t, "this is not a feed")
	good := serveFeed(t, testRSS)
	s := NewSource([]config.Feed{
		{Source: "Broken", URL: bad.URL},
		{Source: "Example News", URL: good.URL},
	}, discardLogger())

	items, err := s.Poll(context.Background(), 200)
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want the working feed's 2", len(items))
	}
}

func TestPollNoFeeds(t *testing.T) {
	s := NewSource(nil, discardLogger())

	items, err := s.Poll(context.Background(), 200)
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %v, want none", items)
	}
}
