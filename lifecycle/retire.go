package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retire removes articles past the retention age, plus any beyond the
// newest-N cap. Chunks are deleted before article rows: a crash between the
// two steps leaves an article with no chunks (it just looks not-yet-embedded)
// rather than chunks referencing a deleted article.
func (m *Manager) Retire(ctx context.Context) error {
	cutoff := m.now().AddDate(0, 0, -m.opts.RetentionDays)

	ids, err := m.articles.RetirableIDs(ctx, cutoff, m.opts.RetentionMaxArticles)
	if err != nil {
		return fmt.Errorf("select retirable articles: %w", err)
	}
	if len(ids) == 0 {
		m.logger.Info("No articles to retire")
		return nil
	}

	deletedChunks, err := m.index.DeleteByArticleIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete chunks for retired articles: %w", err)
	}

	deletedArticles, err := m.articles.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete retired articles: %w", err)
	}

	m.logger.Info("Retire run finished",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted_articles", deletedArticles),
		slog.Int64("deleted_chunks", deletedChunks))
	return nil
}

// PruneVectors drops chunks older than the retention window by their own
// published_at, independent of whether the owning article row still exists.
func (m *Manager) PruneVectors(ctx context.Context) error {
	cutoff := m.now().Add(-time.Duration(m.opts.RetentionDays) * 24 * time.Hour)

	deleted, err := m.index.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune old chunks: %w", err)
	}

	m.logger.Info("Vector prune finished",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted_chunks", deleted))
	return nil
}
