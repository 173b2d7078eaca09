package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkMeta travels with every indexed chunk so retrieval results can be
// traced back to their article.
type ChunkMeta struct {
	ArticleID   int64     `json:"article_id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	ChunkIndex  int       `json:"chunk_index"`
}

// Chunk is one span of article text plus its embedding, ready for upsert.
type Chunk struct {
	Meta      ChunkMeta
	Content   string
	Embedding pgvector.Vector
}

// SearchResult is one retrieval hit. Score is the cosine distance reported
// by pgvector's <=> operator: lower means a closer match.
type SearchResult struct {
	Content string
	Meta    ChunkMeta
	Score   float64
}

// Embedder turns text into vectors; the index uses it for query embedding.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Index is the similarity-searchable chunk store, backed by the
// article_chunks table.
type Index struct {
	db       *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

func NewIndex(db *pgxpool.Pool, embedder Embedder, logger *slog.Logger) *Index {
	return &Index{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// Upsert inserts the chunks, replacing any previous chunks for the same
// article so a retried vectorize run cannot duplicate content.
func (ix *Index) Upsert(ctx context.Context, articleID int64, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := ix.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chunk upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM article_chunks WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("clear existing chunks for article %d: %w", articleID, err)
	}

	query := `INSERT INTO article_chunks
		(id, article_id, chunk_index, content, title, topic, url, published_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, c := range chunks {
		_, err := tx.Exec(ctx, query,
			uuid.New(), c.Meta.ArticleID, c.Meta.ChunkIndex, c.Content,
			c.Meta.Title, c.Meta.Topic, c.Meta.URL, c.Meta.PublishedAt, c.Embedding)
		if err != nil {
			return fmt.Errorf("insert chunk %d for article %d: %w", c.Meta.ChunkIndex, c.Meta.ArticleID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunk upsert: %w", err)
	}
	return nil
}

// Search embeds the query and returns the k nearest chunks by cosine
// distance, closest first.
func (ix *Index) Search(ctx context.Context, queryText string, k int) ([]SearchResult, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	query := `SELECT content, article_id, title, topic, url, published_at, chunk_index,
			embedding <=> $1 AS score
		FROM article_chunks
		ORDER BY score
		LIMIT $2`

	rows, err := ix.db.Query(ctx, query, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		err := rows.Scan(&r.Content, &r.Meta.ArticleID, &r.Meta.Title, &r.Meta.Topic,
			&r.Meta.URL, &r.Meta.PublishedAt, &r.Meta.ChunkIndex, &r.Score)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteByArticleIDs removes every chunk owned by the given articles.
func (ix *Index) DeleteByArticleIDs(ctx context.Context, articleIDs []int64) (int64, error) {
	if len(articleIDs) == 0 {
		return 0, nil
	}
	tag, err := ix.db.Exec(ctx, `DELETE FROM article_chunks WHERE article_id = ANY($1)`, articleIDs)
	if err != nil {
		return 0, fmt.Errorf("delete chunks by article ids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan prunes chunks purely by their own published_at, regardless
// of whether the owning article row still exists.
func (ix *Index) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := ix.db.Exec(ctx, `DELETE FROM article_chunks WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EnsureIndex rebuilds the ivfflat index when the chunk count has drifted far
// from the list count it was built for.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	var count int
	if err := ix.db.QueryRow(ctx, `SELECT COUNT(*) FROM article_chunks`).Scan(&count); err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	lists := int(math.Sqrt(float64(count)))
	if lists < 100 {
		lists = 100
	}

	var currentLists int
	err := ix.db.QueryRow(ctx, `
		SELECT reloptions[1]::text::int
		FROM pg_class c
		LEFT JOIN pg_index i ON c.oid = i.indexrelid
		WHERE c.relname = 'idx_chunks_embedding'
		AND reloptions IS NOT NULL
	`).Scan(&currentLists)
	if err == nil && math.Abs(float64(currentLists-lists)) <= float64(lists)*0.5 {
		return nil
	}

	if _, err := ix.db.Exec(ctx, `DROP INDEX IF EXISTS idx_chunks_embedding`); err != nil {
		return fmt.Errorf("drop chunk index: %w", err)
	}

	createIndexSQL := fmt.Sprintf(`
		CREATE INDEX idx_chunks_embedding
		ON article_chunks
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = %d)
	`, lists)
	if _, err := ix.db.Exec(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create chunk index: %w", err)
	}

	ix.logger.Info("Vector index created/updated",
		slog.Int("chunk_count", count),
		slog.Int("list_count", lists))
	return nil
}
