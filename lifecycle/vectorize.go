package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/tomal-majumder/news-rag-agent/store"
	"github.com/tomal-majumder/news-rag-agent/vectorstore"
)

// Vectorize chunks, embeds, and indexes a bounded batch of classified
// articles. An article is marked embedded only after its chunks are all in
// the index; a partial failure leaves it unmarked and the next run retries
// it (at-least-once).
func (m *Manager) Vectorize(ctx context.Context) error {
	batch, err := m.articles.UnembeddedBatch(ctx, m.opts.VectorizeBatchSize)
	if err != nil {
		return fmt.Errorf("load unembedded articles: %w", err)
	}
	if len(batch) == 0 {
		m.logger.Info("No articles to vectorize")
		return nil
	}

	embedded := 0
	for _, article := range batch {
		if err := m.vectorizeOne(ctx, article); err != nil {
			m.logger.Error("Error vectorizing article",
				slog.Int64("article_id", article.ID),
				slog.String("error", err.Error()))
			continue
		}
		embedded++
	}

	m.logger.Info("Vectorize run finished",
		slog.Int("batch", len(batch)),
		slog.Int("embedded", embedded))
	return nil
}

func (m *Manager) vectorizeOne(ctx context.Context, article store.Article) error {
	texts := m.splitter.Split(article.Body)
	if len(texts) == 0 {
		// Nothing indexable; mark embedded so the article is not retried
		// every run.
		m.logger.Warn("No chunks created for article", slog.Int64("article_id", article.ID))
		return m.articles.MarkEmbedded(ctx, article.ID)
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	topic := "General"
	if article.Topic != nil {
		topic = *article.Topic
	}

	title := article.Title
	if len(title) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}

	chunks := make([]vectorstore.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = vectorstore.Chunk{
			Meta: vectorstore.ChunkMeta{
				ArticleID:   article.ID,
				Title:       title,
				Topic:       topic,
				URL:         article.URL,
				PublishedAt: article.PublishedAt,
				ChunkIndex:  i,
			},
			Content:   text,
			Embedding: vectors[i],
		}
	}

	if err := m.index.Upsert(ctx, article.ID, chunks); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	if err := m.articles.MarkEmbedded(ctx, article.ID); err != nil {
		return fmt.Errorf("mark embedded: %w", err)
	}

	m.logger.Info("Indexed article chunks",
		slog.Int64("article_id", article.ID),
		slog.Int("chunks", len(chunks)))
	return nil
}
