// Command execution for CLI commands.
//
// Information Hiding:
// - Configuration and provider bootstrap hidden
// - History backend selection hidden
// - Output formatting hidden

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/richinex/fusionmcp/config"
	"github.com/richinex/fusionmcp/internal/logging"
	"github.com/richinex/fusionmcp/llm"
	"github.com/richinex/fusionmcp/prompts"
	"github.com/richinex/fusionmcp/router"
	"github.com/richinex/fusionmcp/schema"
	"github.com/richinex/fusionmcp/server"
	"github.com/richinex/fusionmcp/storage"
)

// Options holds CLI execution options.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// AskParams carries the generation settings for a one-shot ask.
type AskParams struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Serve runs the bridge server until interrupted.
func Serve(ctx context.Context, opts Options) error {
	cfg, rt, err := bootstrap(opts)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting bridge server",
		"addr", cfg.Addr(),
		"providers", rt.Providers(),
		"history", cfg.CacheType)

	return server.New(cfg, rt, store).Run(ctx)
}

// Ask sends one ask_model command and prints the response envelope.
func Ask(ctx context.Context, prompt string, params AskParams, opts Options) error {
	cfg, rt, err := bootstrap(opts)
	if err != nil {
		return err
	}

	provider, model, err := resolveModel(cfg, params.Provider, params.Model)
	if err != nil {
		return err
	}

	cmd := schema.Command{
		Command: schema.CommandAskModel,
		Params: &schema.ModelParams{
			Provider:    provider,
			Model:       model,
			Prompt:      prompt,
			Temperature: &params.Temperature,
			MaxTokens:   params.MaxTokens,
		},
	}

	resp, err := rt.Route(ctx, cmd)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Println(string(out))

	if resp.Status == schema.StatusError {
		return fmt.Errorf("generation failed: %s", resp.Message)
	}
	return nil
}

// Models prints the models advertised by each configured provider.
func Models(ctx context.Context, opts Options) error {
	_, rt, err := bootstrap(opts)
	if err != nil {
		return err
	}

	listing := rt.Models(ctx)

	providers := make([]string, 0, len(listing))
	for name := range listing {
		providers = append(providers, name)
	}
	slices.Sort(providers)

	for _, name := range providers {
		fmt.Printf("%s:\n", name)
		if len(listing[name]) == 0 {
			fmt.Println("  (none reported)")
			continue
		}
		for _, model := range listing[name] {
			fmt.Printf("  %s\n", model)
		}
	}
	return nil
}

// Health reports provider readiness.
func Health(ctx context.Context, opts Options) error {
	_, rt, err := bootstrap(opts)
	if err != nil {
		return err
	}

	resp, err := rt.Route(ctx, schema.Command{Command: schema.CommandHealthCheck})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// Helper functions

// bootstrap loads settings, installs logging, and builds the router.
func bootstrap(opts Options) (*config.Config, *router.Router, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	clients := llm.BuildClients(llm.Options{
		OllamaURL: cfg.OllamaURL,
		OpenAIKey: cfg.OpenAIAPIKey,
		GeminiKey: cfg.GeminiAPIKey,
		ClaudeKey: cfg.ClaudeAPIKey,
		Timeout:   cfg.Timeout(),
	})
	if len(clients) == 0 {
		return nil, nil, fmt.Errorf("no providers configured: set ollama_url or an API key")
	}

	rt := router.New(router.Config{
		Clients:         clients,
		SystemPrompt:    prompts.Load(cfg.PromptPath),
		FallbackChain:   cfg.FallbackChain,
		DefaultProvider: cfg.DefaultProvider,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay(),
		Timeout:         cfg.Timeout(),
	})

	return cfg, rt, nil
}

// openStore selects the history backend from settings.
func openStore(cfg *config.Config) (storage.Store, error) {
	if !cfg.CacheEnabled {
		return storage.NewDiscard(), nil
	}
	switch cfg.CacheType {
	case "sqlite":
		return storage.OpenSqlite(cfg.CachePath)
	case "redis":
		return storage.OpenRedis(cfg.RedisURL)
	default:
		return storage.OpenJSON(cfg.CachePath)
	}
}

// resolveModel fills provider and model from settings when flags leave them
// empty. A bare provider flag picks that provider's configured default model.
func resolveModel(cfg *config.Config, provider, model string) (string, string, error) {
	if provider == "" && model == "" {
		if p, m, found := strings.Cut(cfg.DefaultModel, ":"); found {
			return schema.NormalizeProvider(p), m, nil
		}
		return cfg.DefaultProvider, cfg.DefaultModel, nil
	}

	if provider == "" {
		return cfg.DefaultProvider, model, nil
	}

	provider = schema.NormalizeProvider(provider)
	if model != "" {
		return provider, model, nil
	}

	if m, ok := cfg.DefaultModelFor(provider); ok {
		return provider, m, nil
	}
	return "", "", fmt.Errorf("no default model configured for provider %s, pass --model", provider)
}
