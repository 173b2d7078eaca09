package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrContentNotFound reports that the page yielded no usable article text;
// callers fall back to the feed-provided summary.
var ErrContentNotFound = errors.New("content not found")

// contentSelectors are tried in order; the first container that matches wins.
var contentSelectors = []string{
	"article",
	".article-body",
	".story-content",
	`[data-testid="article-content"]`,
	".entry-content",
	".post-content",
	"main",
}

// PageExtractor fetches an article URL and pulls out the readable body text.
type PageExtractor struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPageExtractor(logger *slog.Logger) *PageExtractor {
	return &PageExtractor{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Extract returns cleaned paragraph text from the page at url, or
// ErrContentNotFound when no recognizable article container has text.
func (e *PageExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML from %s: %w", url, err)
	}

	doc.Find("script, style").Remove()

	var paragraphs []string
	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		container.Find("p").Each(func(i int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	if len(paragraphs) == 0 {
		return "", ErrContentNotFound
	}

	return strings.Join(paragraphs, "\n"), nil
}
