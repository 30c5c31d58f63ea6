// Package providers wraps the external text-inference capability behind a
// small OpenAI-compatible chat-completions client, with pluggable auth and
// a provider factory registry.
package providers

import "context"

// Message is the provider wire representation of one chat utterance.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UsageInfo reports token accounting when the provider returns it.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMResponse is the parsed result of one chat-completions call.
type LLMResponse struct {
	Content      string
	FinishReason string
	Usage        *UsageInfo
}

// LLMProvider is one configured text-inference backend.
type LLMProvider interface {
	// Chat sends messages and returns the first choice. Recognized options:
	// "max_tokens" (int), "temperature" and "top_p" (float64).
	Chat(ctx context.Context, messages []Message, model string, options map[string]interface{}) (*LLMResponse, error)
	GetDefaultModel() string
}
