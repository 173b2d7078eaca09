package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tomal-majumder/news-rag-agent/answer"
)

// AnswerService is the orchestrator surface the ask endpoints drive.
type AnswerService interface {
	Answer(ctx context.Context, question string) (*answer.Result, error)
	AnswerStream(ctx context.Context, question string) <-chan answer.PipelineEvent
}

type AskHandler struct {
	service AnswerService
	logger  *slog.Logger
}

func NewAskHandler(service AnswerService, logger *slog.Logger) *AskHandler {
	return &AskHandler{
		service: service,
		logger:  logger,
	}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a question synchronously.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Answer(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("Answer request failed",
			slog.String("question", req.Question),
			slog.String("error", err.Error()))
		switch {
		case errors.Is(err, answer.ErrEmptyQuestion):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, answer.ErrNoInformation):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to answer question", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode answer response", slog.String("error", err.Error()))
	}
}

// AskStream answers a question as a newline-delimited JSON event stream.
// Each line is one pipeline event; the last is either complete or error.
func (h *AskHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	encoder := json.NewEncoder(w)
	for event := range h.service.AnswerStream(r.Context(), req.Question) {
		if err := encoder.Encode(event); err != nil {
			// Client detached; the orchestrator observes the request
			// context and stops on its own.
			h.logger.Warn("Stream write failed", slog.String("error", err.Error()))
			return
		}
		flusher.Flush()
	}
}
