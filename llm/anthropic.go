// Claude client implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - System prompt via the native system parameter

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	jsonutil "github.com/richinex/fusionmcp/internal/json"
)

// AnthropicClient implements the Client interface for Anthropic Claude.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
}

// Name returns the provider name used for routing.
func (c *AnthropicClient) Name() string {
	return "claude"
}

// Generate sends a single-turn request to the Messages API.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("message creation failed: %w", err)
	}

	content := ""
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		}
	}

	var usage *TokenUsage
	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		usage = &TokenUsage{
			PromptTokens:     uint32(message.Usage.InputTokens),
			CompletionTokens: uint32(message.Usage.OutputTokens),
			TotalTokens:      uint32(message.Usage.InputTokens + message.Usage.OutputTokens),
		}
	}

	return &GenerateOutput{
		Text:    content,
		Payload: jsonutil.ObjectFromResponse(content),
		Usage:   usage,
		Latency: time.Since(start),
	}, nil
}

// ListModels returns the model identifiers available to this key.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	var names []string

	iter := c.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})
	for iter.Next() {
		names = append(names, string(iter.Current().ID))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}

	return names, nil
}

// Verify AnthropicClient implements Client
var _ Client = (*AnthropicClient)(nil)
