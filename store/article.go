package store

import "time"

// Article is the corpus row of record. Topic and Summary stay nil until the
// classify job has run; IsEmbedded implies IsProcessed implies Summary != nil.
type Article struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PublishedAt time.Time  `json:"published_at"`
	Topic       *string    `json:"topic,omitempty"`
	Summary     *string    `json:"summary,omitempty"`
	IsProcessed bool       `json:"is_processed"`
	IsEmbedded  bool       `json:"is_embedded"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListFilter narrows the paginated article listing.
type ListFilter struct {
	Topic     string
	Search    string
	Source    string
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// Stats summarizes the state of the corpus.
type Stats struct {
	TotalArticles     int64      `json:"total_articles"`
	ProcessedArticles int64      `json:"processed_articles"`
	EmbeddedArticles  int64      `json:"embedded_articles"`
	TotalChunks       int64      `json:"total_chunks"`
	OldestPublishedAt *time.Time `json:"oldest_published_at,omitempty"`
	NewestPublishedAt *time.Time `json:"newest_published_at,omitempty"`
}
