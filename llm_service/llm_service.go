package llm_service

import "context"

// LLMService produces a completion for a prompt, bounded by maxTokens.
type LLMService interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
