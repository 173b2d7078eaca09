package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Feed identifies one RSS source to poll.
type Feed struct {
	Source string
	URL    string
}

type Config struct {
	Environment  string
	HTTPPort     string
	HTTPSPort    string
	Domains      []string
	CertCacheDir string
	LogDir       string

	DatabaseURL string

	GroqAPIKey    string
	OpenAIAPIKey  string
	TavilyAPIKey  string
	AnswerModel   string
	ClassifyModel string

	Feeds []Feed

	// Retrieval and relevance gating.
	RetrievalK    int
	GateThreshold float64
	GateWeakRatio float64
	// "distance" means a higher score is a weaker match (pgvector <=>),
	// "similarity" means a lower score is weaker.
	GateMetric string

	// Context and response token budgets.
	ContextMaxTokens  int
	MinChunkTokens    int
	ModelCapacity     int
	SafetyMargin      int
	MinResponseTokens int
	MaxResponseTokens int

	// Corpus lifecycle.
	FetchMaxArticles     int
	ClassifyBatchSize    int
	VectorizeBatchSize   int
	RetentionDays        int
	RetentionMaxArticles int
	ClassifyMinInterval  time.Duration

	FetchInterval     time.Duration
	ClassifyInterval  time.Duration
	VectorizeInterval time.Duration
	// Retention jobs run once per day at these hours.
	RetireHours      []int
	VectorPruneHours []int
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8090"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		LogDir:       getEnv("LOG_DIR", "logs"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		TavilyAPIKey:  getEnv("TAVILY_API_KEY", ""),
		AnswerModel:   getEnv("ANSWER_MODEL", "llama-3.3-70b-versatile"),
		ClassifyModel: getEnv("CLASSIFY_MODEL", "llama-3.1-8b-instant"),

		Feeds: parseFeeds(getEnv("NEWS_FEEDS", "BBC News|https://feeds.bbci.co.uk/news/rss.xml")),

		RetrievalK:    getEnvAsInt("RETRIEVAL_K", 5),
		GateThreshold: getEnvAsFloat("GATE_THRESHOLD", 0.4),
		GateWeakRatio: getEnvAsFloat("GATE_WEAK_RATIO", 0.55),
		GateMetric:    getEnv("GATE_METRIC", "distance"),

		ContextMaxTokens:  getEnvAsInt("CONTEXT_MAX_TOKENS", 1200),
		MinChunkTokens:    getEnvAsInt("MIN_CHUNK_TOKENS", 25),
		ModelCapacity:     getEnvAsInt("MODEL_CAPACITY", 8192),
		SafetyMargin:      getEnvAsInt("SAFETY_MARGIN", 200),
		MinResponseTokens: getEnvAsInt("MIN_RESPONSE_TOKENS", 500),
		MaxResponseTokens: getEnvAsInt("MAX_RESPONSE_TOKENS", 2000),

		FetchMaxArticles:     getEnvAsInt("FETCH_MAX_ARTICLES", 200),
		ClassifyBatchSize:    getEnvAsInt("CLASSIFY_BATCH_SIZE", 20),
		VectorizeBatchSize:   getEnvAsInt("VECTORIZE_BATCH_SIZE", 25),
		RetentionDays:        getEnvAsInt("RETENTION_DAYS", 90),
		RetentionMaxArticles: getEnvAsInt("RETENTION_MAX_ARTICLES", 500),
		ClassifyMinInterval:  getEnvAsDuration("CLASSIFY_MIN_INTERVAL_MS", 1200) * time.Millisecond,

		FetchInterval:     getEnvAsDuration("FETCH_INTERVAL_SEC", 6*3600) * time.Second,
		ClassifyInterval:  getEnvAsDuration("CLASSIFY_INTERVAL_SEC", 3600) * time.Second,
		VectorizeInterval: getEnvAsDuration("VECTORIZE_INTERVAL_SEC", 3600) * time.Second,
		RetireHours:       parseHours(getEnv("RETIRE_HOURS", "3")),
		VectorPruneHours:  parseHours(getEnv("VECTOR_PRUNE_HOURS", "4")),
	}
}

// Validate rejects incoherent settings once at startup, before any job or
// request can observe them.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("RETRIEVAL_K must be at least 1, got %d", c.RetrievalK)
	}
	if c.GateWeakRatio < 0 || c.GateWeakRatio > 1 {
		return fmt.Errorf("GATE_WEAK_RATIO must be in [0,1], got %v", c.GateWeakRatio)
	}
	if c.GateMetric != "distance" && c.GateMetric != "similarity" {
		return fmt.Errorf("GATE_METRIC must be \"distance\" or \"similarity\", got %q", c.GateMetric)
	}
	if c.ContextMaxTokens <= 0 {
		return fmt.Errorf("CONTEXT_MAX_TOKENS must be positive, got %d", c.ContextMaxTokens)
	}
	if c.MinResponseTokens > c.MaxResponseTokens {
		return fmt.Errorf("MIN_RESPONSE_TOKENS %d exceeds MAX_RESPONSE_TOKENS %d",
			c.MinResponseTokens, c.MaxResponseTokens)
	}
	if c.ModelCapacity <= c.SafetyMargin {
		return fmt.Errorf("MODEL_CAPACITY %d must exceed SAFETY_MARGIN %d",
			c.ModelCapacity, c.SafetyMargin)
	}
	if len(c.Feeds) == 0 {
		return fmt.Errorf("NEWS_FEEDS must list at least one feed")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("RETENTION_DAYS must be at least 1, got %d", c.RetentionDays)
	}
	if len(c.RetireHours) == 0 {
		return fmt.Errorf("RETIRE_HOURS must list at least one hour")
	}
	if len(c.VectorPruneHours) == 0 {
		return fmt.Errorf("VECTOR_PRUNE_HOURS must list at least one hour")
	}
	return nil
}

// parseHours reads a comma-separated list of hours of the day (0-23).
func parseHours(raw string) []int {
	var hours []int
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		hour, err := strconv.Atoi(entry)
		if err != nil || hour < 0 || hour > 23 {
			log.Printf("config: skipping invalid hour %q", entry)
			continue
		}
		hours = append(hours, hour)
	}
	return hours
}

// parseFeeds reads a comma-separated list of "Source|URL" entries.
func parseFeeds(raw string) []Feed {
	var feeds []Feed
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 2)
		if len(parts) != 2 {
			log.Printf("config: skipping malformed feed entry %q", entry)
			continue
		}
		feeds = append(feeds, Feed{Source: strings.TrimSpace(parts[0]), URL: strings.TrimSpace(parts[1])})
	}
	return feeds
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
