// Package schema defines the wire types exchanged between the CAD add-in,
// the router, and the LLM providers: commands, design context, actions,
// generation results, and the response envelope.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// CommandKind identifies the operation a Command requests.
type CommandKind string

const (
	CommandAskModel       CommandKind = "ask_model"
	CommandSuggestAction  CommandKind = "suggest_action"
	CommandContextUpdate  CommandKind = "context_update"
	CommandExecuteAction  CommandKind = "execute_action"
	CommandValidateAction CommandKind = "validate_action"
	CommandListModels     CommandKind = "list_models"
	CommandHealthCheck    CommandKind = "health_check"
)

// knownCommands is the closed set of accepted command kinds.
var knownCommands = map[CommandKind]bool{
	CommandAskModel:       true,
	CommandSuggestAction:  true,
	CommandContextUpdate:  true,
	CommandExecuteAction:  true,
	CommandValidateAction: true,
	CommandListModels:     true,
	CommandHealthCheck:    true,
}

// KnownCommand reports whether the kind is one of the accepted command kinds.
func KnownCommand(kind CommandKind) bool {
	return knownCommands[kind]
}

// ErrInvalidCommand marks a command that fails structural validation.
// It is the one condition reported to the transport as a request rejection
// rather than folded into a response envelope.
var ErrInvalidCommand = errors.New("invalid command")

// Command is a request to the router.
type Command struct {
	Command    CommandKind    `json:"command"`
	Params     *ModelParams   `json:"params,omitempty"`
	Context    *DesignContext `json:"context,omitempty"`
	ActionData map[string]any `json:"action_data,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Validate checks structural requirements for the command kind.
// ask_model requires model parameters; other kinds carry no hard requirements.
func (c *Command) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("%w: missing command kind", ErrInvalidCommand)
	}
	if !knownCommands[c.Command] {
		return fmt.Errorf("%w: unknown command kind %q", ErrInvalidCommand, c.Command)
	}
	if c.Command == CommandAskModel {
		if c.Params == nil {
			return fmt.Errorf("%w: ask_model requires model parameters", ErrInvalidCommand)
		}
		if err := c.Params.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
	}
	return nil
}

// Supported provider identifiers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// providerAliases map alternate spellings to canonical provider names.
var providerAliases = map[string]string{
	"anthropic": ProviderClaude,
	"google":    ProviderGemini,
	"gpt":       ProviderOpenAI,
	"local":     ProviderOllama,
}

// NormalizeProvider lowercases a provider name and resolves aliases.
// Unknown names pass through unchanged; availability is the router's call.
func NormalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// KnownProvider reports whether the name is one of the four supported providers.
func KnownProvider(provider string) bool {
	switch NormalizeProvider(provider) {
	case ProviderOllama, ProviderOpenAI, ProviderGemini, ProviderClaude:
		return true
	}
	return false
}

// Default generation parameters, applied when a command omits them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// ModelParams selects a provider and model and carries generation inputs.
// Temperature is a pointer so an explicit 0.0 survives; nil means the default.
type ModelParams struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// Validate checks the selection against the closed provider set and the
// documented parameter bounds.
func (p *ModelParams) Validate() error {
	if !KnownProvider(p.Provider) {
		return fmt.Errorf("unsupported provider %q", p.Provider)
	}
	if p.Model == "" {
		return errors.New("missing model name")
	}
	if p.Prompt == "" {
		return errors.New("missing prompt")
	}
	if p.Temperature != nil && (*p.Temperature < 0.0 || *p.Temperature > 2.0) {
		return fmt.Errorf("temperature %v out of range [0.0, 2.0]", *p.Temperature)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("max_tokens %d must be positive", p.MaxTokens)
	}
	return nil
}

// EffectiveTemperature returns the requested temperature, or the default when unset.
func (p *ModelParams) EffectiveTemperature() float64 {
	if p.Temperature != nil {
		return *p.Temperature
	}
	return DefaultTemperature
}

// EffectiveMaxTokens returns the requested token limit, or the default when unset.
func (p *ModelParams) EffectiveMaxTokens() int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}
