package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	c := Load()
	c.DatabaseURL = "postgres://localhost/news"
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := Load()

	if c.RetrievalK != 5 {
		t.Errorf("RetrievalK = %d, want 5", c.RetrievalK)
	}
	if c.GateThreshold != 0.4 || c.GateWeakRatio != 0.55 {
		t.Errorf("gate defaults = %v / %v", c.GateThreshold, c.GateWeakRatio)
	}
	if c.GateMetric != "distance" {
		t.Errorf("GateMetric = %q", c.GateMetric)
	}
	if c.ContextMaxTokens != 1200 || c.MinChunkTokens != 25 {
		t.Errorf("context budget = %d / %d", c.ContextMaxTokens, c.MinChunkTokens)
	}
	if c.ModelCapacity != 8192 || c.SafetyMargin != 200 {
		t.Errorf("capacity = %d margin = %d", c.ModelCapacity, c.SafetyMargin)
	}
	if c.MinResponseTokens != 500 || c.MaxResponseTokens != 2000 {
		t.Errorf("response range = %d..%d", c.MinResponseTokens, c.MaxResponseTokens)
	}
	if c.RetentionDays != 90 || c.RetentionMaxArticles != 500 {
		t.Errorf("retention = %d days / %d articles", c.RetentionDays, c.RetentionMaxArticles)
	}
	if c.ClassifyMinInterval != 1200*time.Millisecond {
		t.Errorf("ClassifyMinInterval = %v", c.ClassifyMinInterval)
	}
	if len(c.Feeds) != 1 || c.Feeds[0].Source != "BBC News" {
		t.Errorf("Feeds = %v", c.Feeds)
	}
	if len(c.RetireHours) != 1 || c.RetireHours[0] != 3 {
		t.Errorf("RetireHours = %v", c.RetireHours)
	}
	if len(c.VectorPruneHours) != 1 || c.VectorPruneHours[0] != 4 {
		t.Errorf("VectorPruneHours = %v", c.VectorPruneHours)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "8")
	t.Setenv("GATE_THRESHOLD", "0.7")
	t.Setenv("GATE_METRIC", "similarity")
	t.Setenv("CLASSIFY_MIN_INTERVAL_MS", "2500")
	t.Setenv("NEWS_FEEDS", "Reuters|https://reuters.example.com/rss, AP|https://ap.example.com/rss")

	c := Load()

	if c.RetrievalK != 8 {
		t.Errorf("RetrievalK = %d, want 8", c.RetrievalK)
	}
	if c.GateThreshold != 0.7 {
		t.Errorf("GateThreshold = %v", c.GateThreshold)
	}
	if c.GateMetric != "similarity" {
		t.Errorf("GateMetric = %q", c.GateMetric)
	}
	if c.ClassifyMinInterval != 2500*time.Millisecond {
		t.Errorf("ClassifyMinInterval = %v", c.ClassifyMinInterval)
	}
	if len(c.Feeds) != 2 || c.Feeds[1].Source != "AP" {
		t.Errorf("Feeds = %v", c.Feeds)
	}
}

func TestLoadIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("RETRIEVAL_K", "lots")
	t.Setenv("GATE_THRESHOLD", "very strict")

	c := Load()

	if c.RetrievalK != 5 || c.GateThreshold != 0.4 {
		t.Errorf("unparsable overrides should fall back, got k=%d threshold=%v",
			c.RetrievalK, c.GateThreshold)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"Valid", func(c *Config) {}, true},
		{"Missing database", func(c *Config) { c.DatabaseURL = "" }, false},
		{"Zero retrieval k", func(c *Config) { c.RetrievalK = 0 }, false},
		{"Ratio above one", func(c *Config) { c.GateWeakRatio = 1.5 }, false},
		{"Unknown metric", func(c *Config) { c.GateMetric = "closeness" }, false},
		{"Zero context budget", func(c *Config) { c.ContextMaxTokens = 0 }, false},
		{"Inverted response range", func(c *Config) { c.MinResponseTokens = 3000 }, false},
		{"Margin swallows capacity", func(c *Config) { c.SafetyMargin = 9000 }, false},
		{"No feeds", func(c *Config) { c.Feeds = nil }, false},
		{"Zero retention", func(c *Config) { c.RetentionDays = 0 }, false},
		{"No retire hours", func(c *Config) { c.RetireHours = nil }, false},
		{"No prune hours", func(c *Config) { c.VectorPruneHours = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{"Single", "3", []int{3}},
		{"Multiple with spaces", "3, 15", []int{3, 15}},
		{"Out of range skipped", "24,-1,6", []int{6}},
		{"Garbage skipped", "noon,12", []int{12}},
		{"Empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHours(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseHours(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseHours(%q)[%d] = %d, want %d", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseFeeds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"Single", "BBC News|https://feeds.bbci.co.uk/news/rss.xml", 1},
		{"Multiple with spaces", "A|http://a.example.com , B|http://b.example.com", 2},
		{"Malformed entry skipped", "no-separator-here,C|http://c.example.com", 1},
		{"Empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFeeds(tt.raw); len(got) != tt.want {
				t.Errorf("parseFeeds(%q) = %v, want %d feeds", tt.raw, got, tt.want)
			}
		})
	}
}
