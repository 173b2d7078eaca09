package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tomal-majumder/news-rag-agent/extract"
	"github.com/tomal-majumder/news-rag-agent/store"
)

// Fetch polls the feeds and inserts articles for URLs not yet in the corpus.
// Dedup is by URL: within the run via a seen set, across runs and across
// concurrent writers via the store's uniqueness constraint.
func (m *Manager) Fetch(ctx context.Context) error {
	m.logger.Info("Starting news fetch")

	items, err := m.source.Poll(ctx, m.opts.FetchMaxArticles)
	if err != nil {
		return fmt.Errorf("poll feeds: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	newCount := 0

	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}

		body := item.Summary
		if m.extractor != nil {
			text, err := m.extractor.Extract(ctx, item.URL)
			switch {
			case err == nil:
				body = text
			case errors.Is(err, extract.ErrContentNotFound):
				// Keep the feed summary.
			default:
				m.logger.Warn("Page extraction failed, keeping feed summary",
					slog.String("url", item.URL),
					slog.String("error", err.Error()))
			}
		}

		article := &store.Article{
			URL:         item.URL,
			Source:      item.Source,
			Title:       item.Title,
			Body:        body,
			PublishedAt: item.PublishedAt,
		}

		inserted, err := m.articles.InsertIfNew(ctx, article)
		if err != nil {
			m.logger.Error("Error saving article",
				slog.String("url", item.URL),
				slog.String("error", err.Error()))
			continue
		}
		if inserted {
			newCount++
		}
	}

	m.logger.Info("News fetch finished",
		slog.Int("candidates", len(items)),
		slog.Int("new_articles", newCount))
	return nil
}
