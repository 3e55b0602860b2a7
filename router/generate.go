// Ask-model flow: prompt assembly, per-provider retry, fallback chain walk,
// and payload-to-action decoding.

package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/fusionmcp/internal/metrics"
	"github.com/richinex/fusionmcp/llm"
	"github.com/richinex/fusionmcp/schema"
)

// askModel runs the requested provider, then walks the fallback chain until
// one succeeds. The envelope carries whichever result settled the outcome.
func (r *Router) askModel(ctx context.Context, cmd schema.Command) *schema.Response {
	params := cmd.Params

	prompt := params.Prompt
	if cmd.Context != nil {
		prompt = cmd.Context.PromptPreamble() + "\n" + params.Prompt
	}

	provider := schema.NormalizeProvider(params.Provider)
	temperature := params.EffectiveTemperature()
	maxTokens := params.EffectiveMaxTokens()

	result := r.generateWithRetry(ctx, provider, params.Model, prompt, temperature, maxTokens)

	if !result.Success && len(r.chain) > 0 {
		slog.Info("primary provider failed, walking fallback chain",
			"provider", provider, "chain_length", len(r.chain))
		metrics.FallbackInvocationsTotal.Inc()

		for _, entry := range r.chain {
			fbProvider, fbModel := r.parseModelString(entry)
			slog.Info("trying fallback provider", "provider", fbProvider, "model", fbModel)
			result = r.generateWithRetry(ctx, fbProvider, fbModel, prompt, temperature, maxTokens)
			if result.Success {
				break
			}
		}
	}

	return envelope(result)
}

// envelope maps a generation result onto the response statuses: a failed
// result is an error, a success without actions needs clarification, and a
// success with actions ships them.
func envelope(result *schema.GenerationResult) *schema.Response {
	if !result.Success {
		message := "All providers failed"
		if result.Error != nil {
			message = fmt.Sprintf("All providers failed: %s", result.Error.Message)
		}
		return &schema.Response{
			Status:           schema.StatusError,
			LLMResponse:      result,
			Message:          message,
			ActionsToExecute: []schema.Action{},
		}
	}

	actions := result.Actions()
	if len(actions) == 0 {
		return &schema.Response{
			Status:           schema.StatusClarificationNeeded,
			LLMResponse:      result,
			Message:          "Need clarification",
			ActionsToExecute: []schema.Action{},
		}
	}

	resp := &schema.Response{
		Status:           schema.StatusSuccess,
		LLMResponse:      result,
		Message:          "Action generated successfully",
		ActionsToExecute: actions,
	}
	if seq := result.ActionSequence; seq != nil && seq.StepCountMismatch() {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("action sequence declares %d steps but contains %d", seq.TotalSteps, len(seq.Actions)))
	}
	return resp
}

// generateWithRetry calls one provider up to maxRetries times, waiting
// retryDelay between failed attempts but never after the last. Parent
// cancellation aborts the wait. A provider missing from the table fails
// immediately without touching any adapter.
func (r *Router) generateWithRetry(ctx context.Context, provider, model, prompt string, temperature float64, maxTokens int) *schema.GenerationResult {
	client, ok := r.clients[provider]
	if !ok {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, "not_configured").Inc()
		return failedResult(provider, model, &schema.GenerationError{
			Kind:        schema.ErrorProviderNotAvailable,
			Message:     fmt.Sprintf("Provider %s not configured", provider),
			Provider:    provider,
			Recoverable: false,
		})
	}

	req := llm.GenerateRequest{
		Model:        model,
		Prompt:       prompt,
		SystemPrompt: r.systemPrompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		attempts = attempt

		out, err := r.generateOnce(ctx, client, req)
		if err == nil {
			metrics.GenerationRequestsTotal.WithLabelValues(provider, "success").Inc()
			metrics.GenerationLatency.WithLabelValues(provider).Observe(out.Latency.Seconds())
			return r.successResult(provider, model, temperature, out)
		}

		lastErr = err
		slog.Warn("generation attempt failed",
			"provider", provider, "model", model, "attempt", attempt, "error", err)

		if attempt == r.maxRetries {
			break
		}
		if !sleepRetry(ctx, r.retryDelay) {
			break
		}
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, "error").Inc()
	return failedResult(provider, model, &schema.GenerationError{
		Kind:        schema.ErrorGenerationFailed,
		Message:     lastErr.Error(),
		Provider:    provider,
		RetryCount:  attempts,
		Recoverable: true,
	})
}

// generateOnce wraps a single adapter call in the per-call timeout.
func (r *Router) generateOnce(ctx context.Context, client llm.Client, req llm.GenerateRequest) (*llm.GenerateOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return client.Generate(callCtx, req)
}

// sleepRetry waits out the retry delay, reporting false when the parent
// context is cancelled first.
func sleepRetry(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// successResult normalizes one provider output, decoding any action payload.
func (r *Router) successResult(provider, model string, temperature float64, out *llm.GenerateOutput) *schema.GenerationResult {
	meta := schema.NewMetadata(provider, model)
	meta.Temperature = &temperature
	latencyMS := out.Latency.Seconds() * 1000
	meta.LatencyMS = &latencyMS
	if out.Usage != nil {
		tokens := int(out.Usage.TotalTokens)
		meta.TokensUsed = &tokens
		metrics.GenerationTokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}

	result := &schema.GenerationResult{
		Success:   true,
		Provider:  provider,
		Model:     model,
		RawOutput: out.Text,
		Metadata:  meta,
	}
	decodePayload(result, out.Payload)
	return result
}

// failedResult builds a failed GenerationResult carrying the given error.
func failedResult(provider, model string, genErr *schema.GenerationError) *schema.GenerationResult {
	return &schema.GenerationResult{
		Provider: provider,
		Model:    model,
		Metadata: schema.NewMetadata(provider, model),
		Error:    genErr,
	}
}

// decodePayload interprets an extracted JSON object. An "actions" key wins
// over "action". A decode failure logs a warning and leaves the result
// without actions; the caller degrades that to clarification, never an error.
func decodePayload(result *schema.GenerationResult, payload map[string]any) {
	if payload == nil {
		return
	}

	if _, ok := payload["actions"]; ok {
		seq, err := schema.DecodeActionSequence(payload)
		if err != nil {
			slog.Warn("undecodable action sequence", "provider", result.Provider, "error", err)
		} else {
			result.ActionSequence = seq
		}
	} else if _, ok := payload["action"]; ok {
		action, err := schema.DecodeAction(payload)
		if err != nil {
			slog.Warn("undecodable action", "provider", result.Provider, "error", err)
		} else {
			result.Action = action
		}
	}

	if reasoning, ok := payload["reasoning"].(string); ok {
		result.Reasoning = reasoning
	}
	if questions, ok := payload["clarifying_questions"]; ok {
		result.ClarifyingQuestions = decodeQuestions(questions)
	}
}

// decodeQuestions converts the raw clarifying_questions value, dropping it
// entirely if it doesn't fit the expected shape.
func decodeQuestions(raw any) []schema.ClarifyingQuestion {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var questions []schema.ClarifyingQuestion
	if err := json.Unmarshal(encoded, &questions); err != nil {
		return nil
	}
	return questions
}

// parseModelString splits a fallback entry into provider and model. An entry
// without a colon names only a model and resolves against the configured
// default provider, logged on every use.
func (r *Router) parseModelString(entry string) (provider, model string) {
	entry = strings.TrimSpace(entry)
	before, after, found := strings.Cut(entry, ":")
	if !found {
		slog.Info("fallback entry names no provider, using default",
			"entry", entry, "provider", r.defaultProvider)
		return r.defaultProvider, entry
	}
	return schema.NormalizeProvider(before), after
}
