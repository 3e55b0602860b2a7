// Client factory - builds the provider table from configuration.
//
// A provider appears in the table only when it is configured: ollama whenever
// a base URL is set (it needs no key), the hosted providers only when their
// API key is present. Routing code treats a missing table entry as
// "provider not configured".

package llm

import "time"

// Options carries the credentials and tuning the factory needs.
type Options struct {
	OllamaURL string
	OpenAIKey string
	GeminiKey string
	ClaudeKey string

	// Timeout bounds each ollama HTTP call. The hosted SDK clients follow
	// the per-request context deadline instead.
	Timeout time.Duration
}

// BuildClients returns the provider table keyed by canonical provider name.
func BuildClients(opts Options) map[string]Client {
	clients := make(map[string]Client)

	if opts.OllamaURL != "" {
		c := NewOllamaClient(opts.OllamaURL, opts.Timeout)
		clients[c.Name()] = c
	}
	if opts.OpenAIKey != "" {
		c := NewOpenAIClient(opts.OpenAIKey)
		clients[c.Name()] = c
	}
	if opts.GeminiKey != "" {
		c := NewGeminiClient(opts.GeminiKey)
		clients[c.Name()] = c
	}
	if opts.ClaudeKey != "" {
		c := NewAnthropicClient(opts.ClaudeKey)
		clients[c.Name()] = c
	}

	return clients
}
