package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// Snippet is one web search hit.
type Snippet struct {
	Content string
	URL     string
}

// Client queries the Tavily search API.
type Client struct {
	apiURL      string
	apiKey      string
	maxSnippets int
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		apiURL:      defaultTavilyURL,
		apiKey:      apiKey,
		maxSnippets: 3,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// Search returns up to maxSnippets results for the query.
func (c *Client) Search(ctx context.Context, query string) ([]Snippet, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("web search API key not set")
	}

	payload := map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": c.maxSnippets,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("web search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResult struct {
		Results []struct {
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}

	var snippets []Snippet
	for _, r := range searchResult.Results {
		if r.Content == "" {
			continue
		}
		snippets = append(snippets, Snippet{Content: r.Content, URL: r.URL})
		if len(snippets) >= c.maxSnippets {
			break
		}
	}

	c.logger.Debug("Web search completed",
		slog.String("query", query),
		slog.Int("snippets", len(snippets)))

	return snippets, nil
}
