package llm_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const classifyMaxTokens = 200

// classifyBodyLimit caps how much article text is sent for classification.
const classifyBodyLimit = 2000

const defaultTopic = "General"

// rateLimiter gates calls to the rate-limited classification endpoint.
type rateLimiter interface {
	Acquire(ctx context.Context) error
}

// Classifier assigns a topic and writes a short summary for an article body.
// Every call goes through the shared rate limiter, so classification calls
// are serialized process-wide.
type Classifier struct {
	llm     LLMService
	limiter rateLimiter
	logger  *slog.Logger
}

func NewClassifier(llm LLMService, limiter rateLimiter, logger *slog.Logger) *Classifier {
	return &Classifier{
		llm:     llm,
		limiter: limiter,
		logger:  logger,
	}
}

// ClassifyAndSummarize never fails outright: on any error it returns the
// default topic and an explicit failure summary so the caller can still mark
// the article processed.
func (c *Classifier) ClassifyAndSummarize(ctx context.Context, body string) (topic, summary string) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return defaultTopic, fmt.Sprintf("Summary unavailable due to error: %v", err)
	}

	prompt := buildClassifyPrompt(body)

	content, err := c.llm.Complete(ctx, prompt, classifyMaxTokens)
	if err != nil {
		c.logger.Error("AI processing error", slog.String("error", err.Error()))
		return defaultTopic, fmt.Sprintf("Summary unavailable due to error: %v", err)
	}

	return parseClassifyResponse(content)
}

func buildClassifyPrompt(body string) string {
	if len(body) > classifyBodyLimit {
		cut := classifyBodyLimit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return fmt.Sprintf(`Analyze this news article and provide:
1. Topic classification (choose ONE from: Technology, Business, Health, Environment, Politics, Sports, Entertainment, Science, General)
2. A concise 5-10 sentence summary

Article Body: %s

Response format:
TOPIC: [topic]
SUMMARY: [summary]`, body)
}

// parseClassifyResponse pulls TOPIC and SUMMARY lines out of the model
// response; anything unparseable falls back to the default topic.
func parseClassifyResponse(content string) (topic, summary string) {
	topic = defaultTopic

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "TOPIC:"); ok {
			if t := strings.TrimSpace(rest); t != "" {
				topic = t
			}
		} else if rest, ok := strings.CutPrefix(line, "SUMMARY:"); ok {
			summary = strings.TrimSpace(rest)
		} else if summary != "" {
			// Multi-line summaries continue until the end of the response.
			summary += " " + line
		}
	}

	return topic, strings.TrimSpace(summary)
}
