package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tomal-majumder/news-rag-agent/store"
)

// ArticleReader is the listing surface of the content store.
type ArticleReader interface {
	List(ctx context.Context, filter store.ListFilter) ([]store.Article, error)
	DistinctTopics(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*store.Stats, error)
}

type ArticlesHandler struct {
	articles ArticleReader
	logger   *slog.Logger
}

func NewArticlesHandler(articles ArticleReader, logger *slog.Logger) *ArticlesHandler {
	return &ArticlesHandler{
		articles: articles,
		logger:   logger,
	}
}

// List serves the filtered, paginated article listing.
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := store.ListFilter{
		Topic:  query.Get("topic"),
		Search: query.Get("search"),
		Source: query.Get("source"),
		Offset: intParam(query.Get("offset"), 0),
		Limit:  intParam(query.Get("limit"), 20),
	}
	if t, err := time.Parse("2006-01-02", query.Get("start_date")); err == nil {
		filter.StartDate = &t
	}
	if t, err := time.Parse("2006-01-02", query.Get("end_date")); err == nil {
		filter.EndDate = &t
	}

	articles, err := h.articles.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list articles", slog.String("error", err.Error()))
		http.Error(w, "Failed to list articles", http.StatusInternalServerError)
		return
	}
	if articles == nil {
		articles = []store.Article{}
	}

	writeJSON(w, h.logger, map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
	})
}

// Topics serves the distinct topic list.
func (h *ArticlesHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.articles.DistinctTopics(r.Context())
	if err != nil {
		h.logger.Error("Failed to list topics", slog.String("error", err.Error()))
		http.Error(w, "Failed to list topics", http.StatusInternalServerError)
		return
	}
	if topics == nil {
		topics = []string{}
	}

	writeJSON(w, h.logger, map[string]interface{}{"topics": topics})
}

// Stats serves corpus counters.
func (h *ArticlesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.articles.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats", slog.String("error", err.Error()))
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, stats)
}

func intParam(raw string, fallback int) int {
	if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
		return value
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
