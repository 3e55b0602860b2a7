// Shared data models for provider clients.
package llm

import "time"

// GenerateRequest carries one generation call. Temperature and MaxTokens are
// always resolved by the caller; clients pass them through unchanged.
type GenerateRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// GenerateOutput is the normalized result of a generation call.
//
// Text is the raw model output. Payload is the first JSON object found in
// Text, or nil when the model answered in plain prose. Usage is nil when the
// provider reports no token accounting (the ollama CLI path, for example).
type GenerateOutput struct {
	Text    string
	Payload map[string]any
	Usage   *TokenUsage
	Latency time.Duration
}
