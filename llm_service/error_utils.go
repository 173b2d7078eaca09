package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError represents the error structure returned by OpenAI-compatible
// chat completion APIs (Groq uses the same wire format).
type APIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type HTTPError struct {
	StatusCode int
	Message    string
	ErrorType  string
	RawBody    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("LLM API error (HTTP %d): %s (Type: %s)", e.StatusCode, e.Message, e.ErrorType)
}

// extractErrorDetails extracts error information from an API error response.
func extractErrorDetails(resp *http.Response) (string, *APIError) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return string(body), &apiErr
	}

	return string(body), nil
}
