package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/tomal-majumder/news-rag-agent/answer"
	"github.com/tomal-majumder/news-rag-agent/chunk"
	"github.com/tomal-majumder/news-rag-agent/config"
	"github.com/tomal-majumder/news-rag-agent/db"
	"github.com/tomal-majumder/news-rag-agent/embedding"
	"github.com/tomal-majumder/news-rag-agent/extract"
	"github.com/tomal-majumder/news-rag-agent/feed"
	"github.com/tomal-majumder/news-rag-agent/handlers"
	"github.com/tomal-majumder/news-rag-agent/lifecycle"
	"github.com/tomal-majumder/news-rag-agent/llm_service"
	"github.com/tomal-majumder/news-rag-agent/logging"
	"github.com/tomal-majumder/news-rag-agent/ratelimit"
	"github.com/tomal-majumder/news-rag-agent/scheduler"
	"github.com/tomal-majumder/news-rag-agent/server"
	"github.com/tomal-majumder/news-rag-agent/store"
	"github.com/tomal-majumder/news-rag-agent/vectorstore"
	"github.com/tomal-majumder/news-rag-agent/websearch"
)

// Text splitting parameters for vectorization, counted in characters.
const (
	chunkSize      = 1000
	chunkOverlap   = 200
	chunkMinLength = 50
)

const schedulerCheckInterval = time.Minute

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(cfg.LogDir)
	ctx := context.Background()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Stores and collaborators, constructed once and passed by reference.
	articles := store.NewArticleStore(pool, logger.With("component", "store"))
	embedder := embedding.NewClient(cfg.OpenAIAPIKey, logger.With("component", "embedding"))
	index := vectorstore.NewIndex(pool, embedder, logger.With("component", "vectorstore"))

	if err := index.EnsureIndex(ctx); err != nil {
		logger.Warn("Could not ensure vector index", "error", err)
	}

	answerLLM := llm_service.NewGroqService(cfg.GroqAPIKey, cfg.AnswerModel, logger.With("component", "llm"))
	classifyLLM := llm_service.NewGroqService(cfg.GroqAPIKey, cfg.ClassifyModel, logger.With("component", "llm"))

	limiter := ratelimit.New(cfg.ClassifyMinInterval)
	classifier := llm_service.NewClassifier(classifyLLM, limiter, logger.With("component", "classifier"))

	web := websearch.NewClient(cfg.TavilyAPIKey, logger.With("component", "websearch"))
	extractor := extract.NewPageExtractor(logger.With("component", "extract"))
	source := feed.NewSource(cfg.Feeds, logger.With("component", "feed"))
	splitter := chunk.NewSplitter(chunkSize, chunkOverlap, chunkMinLength)

	manager := lifecycle.NewManager(source, extractor, articles, index, classifier, embedder, splitter,
		lifecycle.Options{
			FetchMaxArticles:     cfg.FetchMaxArticles,
			ClassifyBatchSize:    cfg.ClassifyBatchSize,
			VectorizeBatchSize:   cfg.VectorizeBatchSize,
			RetentionDays:        cfg.RetentionDays,
			RetentionMaxArticles: cfg.RetentionMaxArticles,
		},
		logger.With("component", "lifecycle"))

	metric, err := answer.ParseMetric(cfg.GateMetric)
	if err != nil {
		log.Fatalf("invalid gate metric: %v", err)
	}
	gate := answer.Gate{
		Threshold: cfg.GateThreshold,
		WeakRatio: cfg.GateWeakRatio,
		Metric:    metric,
	}

	orchestrator := answer.NewOrchestrator(index, web, answerLLM, gate,
		answer.Options{
			RetrievalK:        cfg.RetrievalK,
			ContextMaxTokens:  cfg.ContextMaxTokens,
			MinChunkTokens:    cfg.MinChunkTokens,
			ModelCapacity:     cfg.ModelCapacity,
			SafetyMargin:      cfg.SafetyMargin,
			MinResponseTokens: cfg.MinResponseTokens,
			MaxResponseTokens: cfg.MaxResponseTokens,
		},
		logger.With("component", "orchestrator"))

	sched := scheduler.New(schedulerCheckInterval, logger.With("component", "scheduler"))
	sched.AddJob(&scheduler.ScheduledJob{
		Name: "fetch", Kind: scheduler.TriggerInterval, Interval: cfg.FetchInterval,
		Enabled: true, Run: manager.Fetch,
	})
	sched.AddJob(&scheduler.ScheduledJob{
		Name: "classify", Kind: scheduler.TriggerInterval, Interval: cfg.ClassifyInterval,
		Enabled: true, Run: manager.Classify,
	})
	sched.AddJob(&scheduler.ScheduledJob{
		Name: "vectorize", Kind: scheduler.TriggerInterval, Interval: cfg.VectorizeInterval,
		Enabled: true, Run: manager.Vectorize,
	})
	sched.AddJob(&scheduler.ScheduledJob{
		Name: "retire", Kind: scheduler.TriggerDaily, Hours: cfg.RetireHours,
		Enabled: true, Run: manager.Retire,
	})
	sched.AddJob(&scheduler.ScheduledJob{
		Name: "vector_prune", Kind: scheduler.TriggerDaily, Hours: cfg.VectorPruneHours,
		Enabled: true, Run: manager.PruneVectors,
	})
	go sched.Start(ctx)

	askHandler := handlers.NewAskHandler(orchestrator, logger.With("component", "handlers"))
	articlesHandler := handlers.NewArticlesHandler(articles, logger.With("component", "handlers"))

	r := server.SetupRoutes(askHandler, articlesHandler)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			HTTPPort:     cfg.HTTPPort,
			HTTPSPort:    cfg.HTTPSPort,
		}, logger)
	} else {
		srv := &http.Server{
			Addr:        ":" + cfg.HTTPPort,
			Handler:     n,
			IdleTimeout: time.Minute,
			ReadTimeout: 5 * time.Second,
			// Streaming answers can take a while; do not cut them off.
			WriteTimeout: 120 * time.Second,
		}
		logger.Info("Serving HTTP", "port", cfg.HTTPPort)
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}
