package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

const articleColumns = `id, url, source, title, body, published_at, topic, summary,
	is_processed, is_embedded, created_at, updated_at`

// ArticleStore persists articles in Postgres. All writers go through the
// uniqueness constraint on url, which is the only dedup mechanism.
type ArticleStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewArticleStore(db *pgxpool.Pool, logger *slog.Logger) *ArticleStore {
	return &ArticleStore{
		db:     db,
		logger: logger,
	}
}

// InsertIfNew inserts the article unless its URL is already present. The
// returned bool reports whether a new row was created; a duplicate URL is a
// no-op, not an error, so two concurrent fetch runs cannot double-insert.
func (s *ArticleStore) InsertIfNew(ctx context.Context, a *Article) (bool, error) {
	query := `INSERT INTO articles (url, source, title, body, published_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id int64
	err := s.db.QueryRow(ctx, query, a.URL, a.Source, a.Title, a.Body, a.PublishedAt).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}

	a.ID = id
	return true, nil
}

// UnprocessedBatch returns up to limit articles awaiting classification, in
// stable id order.
func (s *ArticleStore) UnprocessedBatch(ctx context.Context, limit int) ([]Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE is_processed = FALSE ORDER BY id LIMIT $1`, articleColumns)
	return s.queryArticles(ctx, query, limit)
}

// UnembeddedBatch returns up to limit classified articles that still need
// vectorization.
func (s *ArticleStore) UnembeddedBatch(ctx context.Context, limit int) ([]Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles
		WHERE is_processed = TRUE AND is_embedded = FALSE AND summary IS NOT NULL
		ORDER BY id LIMIT $1`, articleColumns)
	return s.queryArticles(ctx, query, limit)
}

// UpdateClassification writes the classify job's result and flips
// is_processed regardless of whether the classification succeeded.
func (s *ArticleStore) UpdateClassification(ctx context.Context, id int64, topic, summary string) error {
	query := `UPDATE articles
		SET topic = $2, summary = $3, is_processed = TRUE, updated_at = NOW()
		WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id, topic, summary); err != nil {
		return fmt.Errorf("update classification for article %d: %w", id, err)
	}
	return nil
}

func (s *ArticleStore) MarkEmbedded(ctx context.Context, id int64) error {
	query := `UPDATE articles SET is_embedded = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark article %d embedded: %w", id, err)
	}
	return nil
}

// RetirableIDs returns the ids of articles published before cutoff, plus any
// beyond the newest maxArticles when maxArticles > 0.
func (s *ArticleStore) RetirableIDs(ctx context.Context, cutoff time.Time, maxArticles int) ([]int64, error) {
	query := `SELECT id FROM articles WHERE published_at < $1`
	rows, err := s.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select retirable articles: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}

	if maxArticles > 0 {
		capQuery := `WITH ranked AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY published_at DESC) AS rn
			FROM articles
		)
		SELECT id FROM ranked WHERE rn > $1`
		rows, err := s.db.Query(ctx, capQuery, maxArticles)
		if err != nil {
			return nil, fmt.Errorf("select over-cap articles: %w", err)
		}
		capIDs, err := scanIDs(rows)
		if err != nil {
			return nil, err
		}
		ids = mergeIDs(ids, capIDs)
	}

	return ids, nil
}

func (s *ArticleStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM articles WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns processed articles with summaries, filtered and paginated,
// newest first.
func (s *ArticleStore) List(ctx context.Context, filter ListFilter) ([]Article, error) {
	builder := sq.Select(articleColumns).
		From("articles").
		Where(sq.Eq{"is_processed": true}).
		Where("summary IS NOT NULL").
		PlaceholderFormat(sq.Dollar)

	if filter.Topic != "" && filter.Topic != "All" {
		builder = builder.Where(sq.Eq{"topic": filter.Topic})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"summary": pattern},
		})
	}
	if filter.Source != "" {
		builder = builder.Where(sq.Eq{"source": filter.Source})
	}
	if filter.StartDate != nil {
		builder = builder.Where(sq.GtOrEq{"published_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		builder = builder.Where(sq.LtOrEq{"published_at": *filter.EndDate})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	builder = builder.OrderBy("published_at DESC").
		Offset(uint64(filter.Offset)).
		Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	return s.queryArticles(ctx, query, args...)
}

// DistinctTopics returns every topic present in the corpus.
func (s *ArticleStore) DistinctTopics(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT topic FROM articles WHERE topic IS NOT NULL ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (s *ArticleStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE is_processed),
		COUNT(*) FILTER (WHERE is_embedded),
		MIN(published_at),
		MAX(published_at)
	FROM articles`
	err := s.db.QueryRow(ctx, query).Scan(
		&stats.TotalArticles,
		&stats.ProcessedArticles,
		&stats.EmbeddedArticles,
		&stats.OldestPublishedAt,
		&stats.NewestPublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("query article stats: %w", err)
	}

	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM article_chunks`).Scan(&stats.TotalChunks)
	if err != nil {
		return nil, fmt.Errorf("query chunk count: %w", err)
	}

	return stats, nil
}

func (s *ArticleStore) queryArticles(ctx context.Context, query string, args ...interface{}) ([]Article, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		err := rows.Scan(
			&a.ID, &a.URL, &a.Source, &a.Title, &a.Body, &a.PublishedAt,
			&a.Topic, &a.Summary, &a.IsProcessed, &a.IsEmbedded,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
