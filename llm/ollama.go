// Ollama client implementation for local models.
//
// Information Hiding:
// - Talks to the local Ollama REST API (/api/generate, /api/tags)
// - Falls back to the `ollama run` CLI when the API is unreachable
// - System prompts are folded into the prompt text (no native field)
// - The CLI path reports no token usage

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	jsonutil "github.com/richinex/fusionmcp/internal/json"
)

// OllamaClient implements the Client interface for a local Ollama server.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama client. timeout bounds each HTTP call
// independently of any context deadline.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return "ollama"
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response  string `json:"response"`
	EvalCount uint32 `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate produces text via the REST API, falling back to the CLI when the
// API call fails for any reason.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error) {
	start := time.Now()

	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = fmt.Sprintf("%s\n\nUser: %s\n\nAssistant:", req.SystemPrompt, req.Prompt)
	}

	text, usage, err := c.generateHTTP(ctx, req.Model, prompt, req.Temperature, req.MaxTokens)
	if err != nil {
		slog.Warn("ollama API unavailable, falling back to CLI", "error", err)
		text, err = c.generateCLI(ctx, req.Model, prompt)
		if err != nil {
			return nil, err
		}
		usage = nil
	}

	return &GenerateOutput{
		Text:    text,
		Payload: jsonutil.ObjectFromResponse(text),
		Usage:   usage,
		Latency: time.Since(start),
	}, nil
}

func (c *OllamaClient) generateHTTP(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, *TokenUsage, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("ollama API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", nil, fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}

	var usage *TokenUsage
	if decoded.EvalCount > 0 {
		usage = &TokenUsage{
			CompletionTokens: decoded.EvalCount,
			TotalTokens:      decoded.EvalCount,
		}
	}

	return decoded.Response, usage, nil
}

func (c *OllamaClient) generateCLI(ctx context.Context, model, prompt string) (string, error) {
	out, err := exec.CommandContext(ctx, "ollama", "run", model, prompt).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("ollama CLI failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("ollama CLI failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListModels returns the locally installed model names.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	var decoded ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Verify OllamaClient implements Client
var _ Client = (*OllamaClient)(nil)
