package answer

// charsPerToken is the fixed estimation ratio used for all budgets. Real
// tokenizers vary per model; this errs toward over-counting short text.
const charsPerToken = 4

// EstimateTokens approximates the token count of text, rounding up.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// AllocateResponseTokens computes the response budget that fits next to the
// prompt within totalCapacity, minus safetyMargin, clamped to
// [minTokens, maxTokens] even when the prompt alone exceeds capacity.
func AllocateResponseTokens(prompt string, totalCapacity, safetyMargin, minTokens, maxTokens int) int {
	available := totalCapacity - EstimateTokens(prompt) - safetyMargin
	if available < minTokens {
		return minTokens
	}
	if available > maxTokens {
		return maxTokens
	}
	return available
}
