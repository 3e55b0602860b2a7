// Google Gemini client implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	jsonutil "github.com/richinex/fusionmcp/internal/json"
)

// GeminiClient implements the Client interface for Google Gemini.
type GeminiClient struct {
	client  *genai.Client
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiClient creates a new Gemini client.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiClient(apiKey string) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiClient{
			client:  nil,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}

	return &GeminiClient{client: client}
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Generate sends a single-turn content generation request.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	start := time.Now()

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	response, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	content := response.Text()
	if content == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var usage *TokenUsage
	if response.UsageMetadata != nil {
		usage = &TokenUsage{
			PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
		}
	}

	return &GenerateOutput{
		Text:    content,
		Payload: jsonutil.ObjectFromResponse(content),
		Usage:   usage,
		Latency: time.Since(start),
	}, nil
}

// ListModels returns the Gemini model identifiers, without the "models/"
// resource prefix.
func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	var names []string
	// Models.All returns iter.Seq2[*Model, error]
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models failed: %w", err)
		}
		name := strings.TrimPrefix(model.Name, "models/")
		if strings.Contains(strings.ToLower(name), "gemini") {
			names = append(names, name)
		}
	}

	return names, nil
}

// Verify GeminiClient implements Client
var _ Client = (*GeminiClient)(nil)
