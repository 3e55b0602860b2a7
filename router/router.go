// Package router dispatches design commands to LLM providers.
//
// This is THE command routing core. Every command, whether it arrives over
// HTTP or from the CLI, goes through Route.
//
// Information Hiding:
// - Provider selection and fallback order hidden
// - Retry pacing hidden
// - Model-listing cache internals hidden
package router

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/richinex/fusionmcp/internal/metrics"
	"github.com/richinex/fusionmcp/llm"
	"github.com/richinex/fusionmcp/schema"
)

// Model listings change rarely; a short TTL keeps GET /models bursts from
// hammering the providers.
const (
	listingTTL  = 5 * time.Minute
	listingSize = 8
)

// Config holds router configuration.
type Config struct {
	// Clients maps provider name to its configured client.
	Clients map[string]llm.Client

	// SystemPrompt is sent with every generation request.
	SystemPrompt string

	// FallbackChain lists "provider:model" entries tried in order when the
	// requested provider fails.
	FallbackChain []string

	// DefaultProvider resolves chain entries that name only a model.
	DefaultProvider string

	// MaxRetries is the number of attempts per provider.
	MaxRetries int

	// RetryDelay is the pause between failed attempts.
	RetryDelay time.Duration

	// Timeout bounds each individual generation call.
	Timeout time.Duration
}

// Router routes design commands to the configured LLM providers.
// State after construction is read-only; Route is safe for concurrent use.
type Router struct {
	clients         map[string]llm.Client
	systemPrompt    string
	chain           []string
	defaultProvider string
	maxRetries      int
	retryDelay      time.Duration
	timeout         time.Duration

	listings  *expirable.LRU[string, []string]
	listGroup singleflight.Group
}

// New creates a router over the given provider table.
func New(config Config) *Router {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.DefaultProvider == "" {
		config.DefaultProvider = schema.ProviderOpenAI
	}

	return &Router{
		clients:         config.Clients,
		systemPrompt:    config.SystemPrompt,
		chain:           config.FallbackChain,
		defaultProvider: schema.NormalizeProvider(config.DefaultProvider),
		maxRetries:      config.MaxRetries,
		retryDelay:      config.RetryDelay,
		timeout:         config.Timeout,
		listings:        expirable.NewLRU[string, []string](listingSize, nil, listingTTL),
	}
}

// Route dispatches a command and builds the response envelope. The error
// return is non-nil only when the command fails structural validation;
// generation failures are folded into the envelope instead.
func (r *Router) Route(ctx context.Context, cmd schema.Command) (*schema.Response, error) {
	resp, err := r.dispatch(ctx, cmd)
	metrics.CommandsTotal.WithLabelValues(string(cmd.Command), string(resp.Status)).Inc()
	return resp, err
}

func (r *Router) dispatch(ctx context.Context, cmd schema.Command) (*schema.Response, error) {
	if err := cmd.Validate(); err != nil {
		return rejectionEnvelope(cmd, err), err
	}

	switch cmd.Command {
	case schema.CommandAskModel:
		return r.askModel(ctx, cmd), nil
	case schema.CommandListModels:
		return r.listModels(ctx), nil
	case schema.CommandHealthCheck:
		return r.healthCheck(), nil
	case schema.CommandContextUpdate:
		return r.contextUpdate(), nil
	default:
		// suggest_action, validate_action and execute_action pass validation
		// but belong to the transport layer, not the router.
		return schema.ErrorResponse(fmt.Sprintf("Command %s is not handled by the router", cmd.Command)), nil
	}
}

// rejectionEnvelope translates a validation failure into the error texts
// callers expect alongside the rejected-request error.
func rejectionEnvelope(cmd schema.Command, err error) *schema.Response {
	switch {
	case !schema.KnownCommand(cmd.Command):
		return schema.ErrorResponse(fmt.Sprintf("Unknown command: %s", cmd.Command))
	case cmd.Command == schema.CommandAskModel && cmd.Params == nil:
		return schema.ErrorResponse("Missing model parameters")
	default:
		return schema.ErrorResponse(err.Error())
	}
}

// listModels collects the model catalog from every configured provider.
func (r *Router) listModels(ctx context.Context) *schema.Response {
	models := r.Models(ctx)
	return &schema.Response{
		Status:  schema.StatusSuccess,
		Message: "Models listed successfully",
		LLMResponse: &schema.GenerationResult{
			Success:   true,
			Provider:  "system",
			Model:     "list_models",
			RawOutput: fmt.Sprint(models),
			Metadata:  schema.NewMetadata("system", "list_models"),
		},
		ActionsToExecute: []schema.Action{},
	}
}

// Models returns the available models per configured provider. Listings are
// cached briefly, and concurrent lookups for one provider collapse into a
// single upstream call. A provider that fails to answer maps to an empty
// list rather than failing the whole listing.
func (r *Router) Models(ctx context.Context) map[string][]string {
	models := make(map[string][]string, len(r.clients))
	for name, client := range r.clients {
		models[name] = r.providerModels(ctx, name, client)
	}
	return models
}

func (r *Router) providerModels(ctx context.Context, name string, client llm.Client) []string {
	if cached, ok := r.listings.Get(name); ok {
		return cached
	}

	listed, err, _ := r.listGroup.Do(name, func() (interface{}, error) {
		models, err := client.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		r.listings.Add(name, models)
		return models, nil
	})
	if err != nil {
		slog.Warn("failed to list models", "provider", name, "error", err)
		return []string{}
	}
	return listed.([]string)
}

// healthCheck reports which providers are configured. Configured means a
// client exists in the table; reachability is not probed.
func (r *Router) healthCheck() *schema.Response {
	return &schema.Response{
		Status:           schema.StatusSuccess,
		Message:          fmt.Sprintf("Healthy providers: %v", r.Providers()),
		ActionsToExecute: []schema.Action{},
	}
}

// contextUpdate acknowledges a design context snapshot. Persisting it is the
// transport's job; the router only confirms receipt.
func (r *Router) contextUpdate() *schema.Response {
	return &schema.Response{
		Status:           schema.StatusSuccess,
		Message:          "Context updated",
		ActionsToExecute: []schema.Action{},
	}
}

// Providers returns the configured provider names, sorted.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
