package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tomal-majumder/news-rag-agent/llm_service"
	"github.com/tomal-majumder/news-rag-agent/vectorstore"
	"github.com/tomal-majumder/news-rag-agent/websearch"
)

var (
	ErrEmptyQuestion = errors.New("please provide a question")
	ErrNoInformation = errors.New("no relevant information found")
)

// VectorSearcher is the retrieval collaborator.
type VectorSearcher interface {
	Search(ctx context.Context, queryText string, k int) ([]vectorstore.SearchResult, error)
}

// WebSearcher is the live web fallback collaborator.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]websearch.Snippet, error)
}

// Options are the orchestrator's fixed budgets, validated at startup.
type Options struct {
	RetrievalK        int
	ContextMaxTokens  int
	MinChunkTokens    int
	ModelCapacity     int
	SafetyMargin      int
	MinResponseTokens int
	MaxResponseTokens int
}

// Orchestrator runs the question-answering pipeline: retrieve, gate,
// optionally fall back to the web, budget the context, generate. One
// instance is constructed at startup and shared by all requests.
type Orchestrator struct {
	index  VectorSearcher
	web    WebSearcher
	llm    llm_service.LLMService
	gate   Gate
	opts   Options
	logger *slog.Logger

	// eventPause is the cooperative yield between streamed events so a
	// synchronous consumer is not overwhelmed.
	eventPause time.Duration
}

func NewOrchestrator(index VectorSearcher, web WebSearcher, llm llm_service.LLMService,
	gate Gate, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		index:      index,
		web:        web,
		llm:        llm,
		gate:       gate,
		opts:       opts,
		logger:     logger,
		eventPause: 10 * time.Millisecond,
	}
}

// Answer runs the pipeline synchronously.
func (o *Orchestrator) Answer(ctx context.Context, question string) (*Result, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	results, err := o.index.Search(ctx, question, o.opts.RetrievalK)
	if err != nil {
		return nil, fmt.Errorf("local search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoInformation
	}

	var prompt string
	var sources []string
	var method string

	if o.gate.ShouldFallback(scoresOf(results)) {
		o.logger.Info("Falling back to web search", slog.String("question", question))
		prompt, sources, err = o.buildFromWeb(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("web search failed: %w", err)
		}
		method = MethodWebSearch
	} else {
		prompt, sources = o.buildFromLocal(question, results)
		method = MethodLocalKnowledge
	}

	answerText, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Result{
		Answer:           answerText,
		Sources:          sources,
		TimeTakenSeconds: time.Since(start).Seconds(),
		Method:           method,
	}, nil
}

// AnswerStream runs the pipeline in a goroutine, reporting progress on the
// returned channel. The channel carries exactly one terminal event (complete
// or error) and is closed when the pipeline finishes. If ctx is cancelled the
// producer stops at its next suspension point; calls already in flight are
// not unwound.
func (o *Orchestrator) AnswerStream(ctx context.Context, question string) <-chan PipelineEvent {
	events := make(chan PipelineEvent, 8)
	go func() {
		defer close(events)
		o.stream(ctx, question, events)
	}()
	return events
}

func (o *Orchestrator) stream(ctx context.Context, question string, events chan<- PipelineEvent) {
	start := time.Now()

	emit := func(ev PipelineEvent) bool {
		select {
		case events <- ev:
		case <-ctx.Done():
			return false
		}
		if o.eventPause > 0 {
			time.Sleep(o.eventPause)
		}
		return true
	}

	question = strings.TrimSpace(question)
	if question == "" {
		emit(errorEvent(ErrEmptyQuestion.Error()))
		return
	}

	if !emit(statusEvent("Searching knowledge base...", StepLocalSearch)) {
		return
	}

	results, err := o.index.Search(ctx, question, o.opts.RetrievalK)
	if err != nil {
		emit(errorEvent(fmt.Sprintf("Local search failed: %v", err)))
		return
	}
	if len(results) == 0 {
		emit(errorEvent("No relevant information found."))
		return
	}

	var prompt string
	var sources []string
	var method string

	if o.gate.ShouldFallback(scoresOf(results)) {
		if !emit(statusEvent("Searching the web for latest information...", StepWebSearch)) {
			return
		}
		prompt, sources, err = o.buildFromWeb(ctx, question)
		if err != nil {
			emit(errorEvent(fmt.Sprintf("Web search failed: %v", err)))
			return
		}
		method = MethodWebSearch
	} else {
		prompt, sources = o.buildFromLocal(question, results)
		method = MethodLocalKnowledge
	}

	if !emit(statusEvent("Generating AI response...", StepGenerate)) {
		return
	}

	answerText, err := o.generate(ctx, prompt)
	if err != nil {
		emit(errorEvent(fmt.Sprintf("Failed to generate answer: %v", err)))
		return
	}

	emit(completeEvent(&Result{
		Answer:           answerText,
		Sources:          sources,
		TimeTakenSeconds: time.Since(start).Seconds(),
		Method:           method,
	}))
}

// buildFromLocal assembles the prompt and sources from retrieved chunks.
func (o *Orchestrator) buildFromLocal(question string, results []vectorstore.SearchResult) (string, []string) {
	texts := make([]string, len(results))
	sources := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
		if r.Meta.URL != "" {
			sources[i] = r.Meta.URL
		} else if r.Meta.Title != "" {
			sources[i] = r.Meta.Title
		} else {
			sources[i] = "Unknown"
		}
	}

	context := BuildContext(texts, o.opts.ContextMaxTokens, o.opts.MinChunkTokens, "Chunk")
	return buildLocalPrompt(question, context), sources
}

// buildFromWeb runs the fallback search and assembles the prompt from the
// returned snippets.
func (o *Orchestrator) buildFromWeb(ctx context.Context, question string) (string, []string, error) {
	snippets, err := o.web.Search(ctx, question)
	if err != nil {
		return "", nil, err
	}

	texts := make([]string, len(snippets))
	var sources []string
	for i, s := range snippets {
		texts[i] = s.Content
		if s.URL != "" {
			sources = append(sources, s.URL)
		}
	}
	if len(sources) == 0 {
		sources = []string{"Web Search"}
	}

	context := BuildContext(texts, o.opts.ContextMaxTokens, o.opts.MinChunkTokens, "Result")
	return buildWebPrompt(question, context), sources, nil
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := AllocateResponseTokens(prompt,
		o.opts.ModelCapacity, o.opts.SafetyMargin,
		o.opts.MinResponseTokens, o.opts.MaxResponseTokens)

	o.logger.Debug("Generating answer",
		slog.Int("prompt_tokens", EstimateTokens(prompt)),
		slog.Int("response_budget", maxTokens))

	return o.llm.Complete(ctx, prompt, maxTokens)
}

func scoresOf(results []vectorstore.SearchResult) []float64 {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	return scores
}
