// Package llm provides LLM provider clients.
//
// Client - the uniform interface for generation providers.
// Each implementation hides:
// - API endpoint and authentication
// - Request/response format conversion
// - System prompt embedding (native field or prompt concatenation)
// - Best-effort JSON payload extraction from raw model text

package llm

import (
	"context"
)

// Client defines what every provider exposes. Implementations never retry
// their own transport; retry policy belongs to the caller.
type Client interface {
	// Name returns the provider identifier used for routing and logging.
	Name() string

	// Generate produces text for a single prompt. A non-nil error means the
	// underlying call failed outright; a nil Payload on a successful output
	// means the text contained no parseable JSON object, which is not an
	// error.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateOutput, error)

	// ListModels returns the model identifiers the provider currently offers.
	ListModels(ctx context.Context) ([]string, error)
}
