// OpenAI client implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - JSON response mode for model families that support it
// - System prompt as a native system-role message

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	jsonutil "github.com/richinex/fusionmcp/internal/json"
)

// OpenAIClient implements the Client interface for OpenAI.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey)}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// supportsJSONMode reports whether the model accepts the json_object
// response format. The API requires the word JSON to appear in the
// messages when this mode is on.
func supportsJSONMode(model string) bool {
	return strings.Contains(model, "gpt-4") || strings.Contains(model, "gpt-3.5")
}

// Generate sends a single-turn chat completion request.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error) {
	start := time.Now()

	system := req.SystemPrompt
	jsonMode := supportsJSONMode(req.Model)
	if jsonMode {
		if system == "" {
			system = "You must respond with valid JSON."
		} else {
			system += "\n\nYou must respond with valid JSON."
		}
	}

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	if jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &GenerateOutput{
		Text:    content,
		Payload: jsonutil.ObjectFromResponse(content),
		Usage: &TokenUsage{
			PromptTokens:     uint32(resp.Usage.PromptTokens),
			CompletionTokens: uint32(resp.Usage.CompletionTokens),
			TotalTokens:      uint32(resp.Usage.TotalTokens),
		},
		Latency: time.Since(start),
	}, nil
}

// ListModels returns the GPT model identifiers available to this key.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}

	var names []string
	for _, m := range resp.Models {
		if strings.Contains(m.ID, "gpt") {
			names = append(names, m.ID)
		}
	}
	return names, nil
}

// Verify OpenAIClient implements Client
var _ Client = (*OpenAIClient)(nil)
