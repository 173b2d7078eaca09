package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
)

// Classify processes a bounded batch of unclassified articles. Every article
// in the batch is marked processed, even when the model call failed and the
// summary is a failure placeholder: a persistently failing article is skipped
// permanently rather than retried forever (poison-pill avoidance). Clearing
// is_processed by hand is the way to force a re-run for one article.
func (m *Manager) Classify(ctx context.Context) error {
	batch, err := m.articles.UnprocessedBatch(ctx, m.opts.ClassifyBatchSize)
	if err != nil {
		return fmt.Errorf("load unprocessed articles: %w", err)
	}
	if len(batch) == 0 {
		m.logger.Info("No articles to classify")
		return nil
	}

	processed := 0
	for _, article := range batch {
		topic, summary := m.classifier.ClassifyAndSummarize(ctx, article.Body)

		if err := m.articles.UpdateClassification(ctx, article.ID, topic, summary); err != nil {
			m.logger.Error("Failed to store classification",
				slog.Int64("article_id", article.ID),
				slog.String("error", err.Error()))
			continue
		}

		processed++
		m.logger.Info("Classified article",
			slog.Int64("article_id", article.ID),
			slog.String("topic", topic))
	}

	m.logger.Info("Classification run finished",
		slog.Int("batch", len(batch)),
		slog.Int("processed", processed))
	return nil
}
