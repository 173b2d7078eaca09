package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tomal-majumder/news-rag-agent/config"
)

// perFeedLimit caps how many entries are taken from a single feed.
const perFeedLimit = 100

// Item is one candidate article as reported by a feed, before storage.
type Item struct {
	Title       string
	URL         string
	Source      string
	Summary     string
	PublishedAt time.Time
}

// Source polls the configured RSS feeds.
type Source struct {
	feeds  []config.Feed
	parser *gofeed.Parser
	logger *slog.Logger
}

func NewSource(feeds []config.Feed, logger *slog.Logger) *Source {
	return &Source{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Poll reads every configured feed and returns up to maxItems candidates.
// A failing feed is logged and skipped; the rest are still read.
func (s *Source) Poll(ctx context.Context, maxItems int) ([]Item, error) {
	var items []Item

	for _, f := range s.feeds {
		parsed, err := s.parser.ParseURLWithContext(f.URL, ctx)
		if err != nil {
			s.logger.Error("Error fetching feed",
				slog.String("url", f.URL),
				slog.String("error", err.Error()))
			continue
		}

		entries := parsed.Items
		if len(entries) > perFeedLimit {
			entries = entries[:perFeedLimit]
		}

		for _, entry := range entries {
			item := Item{
				Title:       entry.Title,
				URL:         entry.Link,
				Source:      f.Source,
				Summary:     entrySummary(entry),
				PublishedAt: entryPublished(entry),
			}

			// Skip entries missing essential data.
			if item.Title == "" || item.URL == "" {
				continue
			}
			items = append(items, item)
		}

		if len(items) >= maxItems {
			break
		}
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

func entrySummary(entry *gofeed.Item) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Content
}

func entryPublished(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Now()
}
