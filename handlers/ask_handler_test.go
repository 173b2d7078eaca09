package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomal-majumder/news-rag-agent/answer"
)

type fakeAnswerService struct {
	result *answer.Result
	err    error
	events []answer.PipelineEvent
}

func (f *fakeAnswerService) Answer(ctx context.Context, question string) (*answer.Result, error) {
	return f.result, f.err
}

func (f *fakeAnswerService) AnswerStream(ctx context.Context, question string) <-chan answer.PipelineEvent {
	ch := make(chan answer.PipelineEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsk(t *testing.T) {
	h := NewAskHandler(&fakeAnswerService{result: &answer.Result{
		Answer:           "Parliament passed the budget.",
		Sources:          []string{"https://news.example.com/a"},
		TimeTakenSeconds: 0.42,
		Method:           answer.MethodLocalKnowledge,
	}}, discardLogger())

	req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"question": "what happened?"}`))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got answer.Result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Answer != "Parliament passed the budget." || got.Method != answer.MethodLocalKnowledge {
		t.Errorf("response = %+v", got)
	}
}

func TestAskErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"Empty question", answer.ErrEmptyQuestion, http.StatusBadRequest},
		{"No information", answer.ErrNoInformation, http.StatusNotFound},
		{"Internal failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAskHandler(&fakeAnswerService{err: tt.serviceErr}, discardLogger())

			req := httptest.NewRequest("POST", "/ask", strings.NewReader(`{"question": "q"}`))
			rec := httptest.NewRecorder()
			h.Ask(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAskInvalidBody(t *testing.T) {
	h := NewAskHandler(&fakeAnswerService{}, discardLogger())

	req := httptest.NewRequest("POST", "/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskStream(t *testing.T) {
	events := []answer.PipelineEvent{
		{Type: answer.EventStatus, Message: "Searching knowledge base...", Step: answer.StepLocalSearch},
		{Type: answer.EventStatus, Message: "Generating AI response...", Step: answer.StepGenerate},
		{Type: answer.EventComplete, Message: "Answer generated successfully!", Data: &answer.Result{
			Answer: "done", Sources: []string{"s"}, Method: answer.MethodLocalKnowledge,
		}},
	}
	h := NewAskHandler(&fakeAnswerService{events: events}, discardLogger())

	req := httptest.NewRequest("POST", "/ask-stream", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}

	var lines []answer.PipelineEvent
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev answer.PipelineEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %q is not a JSON event: %v", line, err)
		}
		lines = append(lines, ev)
	}

	if len(lines) != len(events) {
		t.Fatalf("got %d events, want %d", len(lines), len(events))
	}
	last := lines[len(lines)-1]
	if last.Type != answer.EventComplete || last.Data == nil || last.Data.Answer != "done" {
		t.Errorf("last event = %+v", last)
	}
}

func TestAskStreamError(t *testing.T) {
	h := NewAskHandler(&fakeAnswerService{events: []answer.PipelineEvent{
		{Type: answer.EventError, Message: "No relevant information found."},
	}}, discardLogger())

	req := httptest.NewRequest("POST", "/ask-stream", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	var ev answer.PipelineEvent
	if err := json.Unmarshal([]byte(strings.TrimSpace(rec.Body.String())), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != answer.EventError {
		t.Errorf("event = %+v", ev)
	}
}

func TestAskStreamInvalidBody(t *testing.T) {
	h := NewAskHandler(&fakeAnswerService{}, discardLogger())

	req := httptest.NewRequest("POST", "/ask-stream", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
