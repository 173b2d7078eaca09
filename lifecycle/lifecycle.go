package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/tomal-majumder/news-rag-agent/chunk"
	"github.com/tomal-majumder/news-rag-agent/feed"
	"github.com/tomal-majumder/news-rag-agent/store"
	"github.com/tomal-majumder/news-rag-agent/vectorstore"
)

// FeedSource supplies candidate articles.
type FeedSource interface {
	Poll(ctx context.Context, maxItems int) ([]feed.Item, error)
}

// Extractor pulls full article text from a page.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// ArticleStore is the slice of the content store the lifecycle jobs mutate.
type ArticleStore interface {
	InsertIfNew(ctx context.Context, a *store.Article) (bool, error)
	UnprocessedBatch(ctx context.Context, limit int) ([]store.Article, error)
	UnembeddedBatch(ctx context.Context, limit int) ([]store.Article, error)
	UpdateClassification(ctx context.Context, id int64, topic, summary string) error
	MarkEmbedded(ctx context.Context, id int64) error
	RetirableIDs(ctx context.Context, cutoff time.Time, maxArticles int) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// VectorIndex is the slice of the chunk index the lifecycle jobs mutate.
type VectorIndex interface {
	Upsert(ctx context.Context, articleID int64, chunks []vectorstore.Chunk) error
	DeleteByArticleIDs(ctx context.Context, articleIDs []int64) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Classifier assigns topic and summary; it degrades instead of failing.
type Classifier interface {
	ClassifyAndSummarize(ctx context.Context, body string) (topic, summary string)
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Options bound each job's work per run.
type Options struct {
	FetchMaxArticles     int
	ClassifyBatchSize    int
	VectorizeBatchSize   int
	RetentionDays        int
	RetentionMaxArticles int
}

// Manager owns the four scheduled corpus jobs: fetch, classify, vectorize,
// retire (plus the independent vector prune). Jobs are idempotent and isolate
// per-item failures so one bad article never aborts a batch.
type Manager struct {
	source     FeedSource
	extractor  Extractor
	articles   ArticleStore
	index      VectorIndex
	classifier Classifier
	embedder   Embedder
	splitter   *chunk.Splitter
	opts       Options
	logger     *slog.Logger

	now func() time.Time
}

func NewManager(source FeedSource, extractor Extractor, articles ArticleStore,
	index VectorIndex, classifier Classifier, embedder Embedder,
	splitter *chunk.Splitter, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		source:     source,
		extractor:  extractor,
		articles:   articles,
		index:      index,
		classifier: classifier,
		embedder:   embedder,
		splitter:   splitter,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}
