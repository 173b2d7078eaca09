package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dbURL string) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	var pool *pgxpool.Pool
	var err error
	maxRetries := 10
	retryDelay := time.Second * 10

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %v", err)
	}

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(context.Background(), cfg)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to the database")
				break
			}
		}

		log.Printf("Failed to connect to the database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database after %d attempts: %v", maxRetries, err)
	}

	_, err = pool.Exec(context.Background(), "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return nil, fmt.Errorf("unable to create vector extension: %v", err)
	}

	return pool, nil
}

// EnsureSchema creates the articles and article_chunks tables and their
// supporting indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id           BIGSERIAL PRIMARY KEY,
			url          TEXT NOT NULL UNIQUE,
			source       TEXT NOT NULL,
			title        TEXT NOT NULL,
			body         TEXT NOT NULL,
			published_at TIMESTAMPTZ NOT NULL,
			topic        TEXT,
			summary      TEXT,
			is_processed BOOLEAN NOT NULL DEFAULT FALSE,
			is_embedded  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles (is_processed, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_embedded ON articles (is_embedded, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles (topic, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source, published_at)`,
		`CREATE TABLE IF NOT EXISTS article_chunks (
			id           UUID PRIMARY KEY,
			article_id   BIGINT NOT NULL,
			chunk_index  INT NOT NULL,
			content      TEXT NOT NULL,
			title        TEXT NOT NULL,
			topic        TEXT NOT NULL,
			url          TEXT NOT NULL,
			published_at TIMESTAMPTZ NOT NULL,
			embedding    vector(1536) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_article ON article_chunks (article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_published ON article_chunks (published_at)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
