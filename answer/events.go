package answer

// Event types on the streaming wire. Exactly one of EventError or
// EventComplete terminates a stream.
const (
	EventStatus   = "status"
	EventError    = "error"
	EventComplete = "complete"
)

// Step identifiers reported with status events.
const (
	StepLocalSearch = "local_search"
	StepWebSearch   = "web_search"
	StepGenerate    = "generate_answer"
)

// Answer methods reported in the completed result.
const (
	MethodLocalKnowledge = "local_knowledge"
	MethodWebSearch      = "web_search"
)

// Result is the final payload of a completed answer.
type Result struct {
	Answer           string   `json:"answer"`
	Sources          []string `json:"sources"`
	TimeTakenSeconds float64  `json:"time_taken_seconds"`
	Method           string   `json:"method"`
}

// PipelineEvent is one progress report from the streaming orchestrator.
type PipelineEvent struct {
	Type    string  `json:"type"`
	Message string  `json:"message"`
	Step    string  `json:"step,omitempty"`
	Data    *Result `json:"data,omitempty"`
}

func statusEvent(message, step string) PipelineEvent {
	return PipelineEvent{Type: EventStatus, Message: message, Step: step}
}

func errorEvent(message string) PipelineEvent {
	return PipelineEvent{Type: EventError, Message: message}
}

func completeEvent(result *Result) PipelineEvent {
	return PipelineEvent{Type: EventComplete, Message: "Answer generated successfully!", Data: result}
}
