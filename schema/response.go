package schema

import "time"

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	// ErrorProviderNotAvailable means the requested provider has no
	// configured adapter. Never retried.
	ErrorProviderNotAvailable ErrorKind = "provider_not_available"
	// ErrorGenerationFailed means every attempt against one provider was
	// exhausted. A fallback provider may still supersede it.
	ErrorGenerationFailed ErrorKind = "generation_failed"
	// ErrorParseFailed means the provider text yielded no usable payload.
	// Surfaces as clarification_needed, not as a hard error.
	ErrorParseFailed ErrorKind = "parse_failed"
)

// GenerationError describes why a generation attempt failed.
type GenerationError struct {
	Kind        ErrorKind `json:"type"`
	Message     string    `json:"message"`
	Provider    string    `json:"provider"`
	RetryCount  int       `json:"retry_count,omitempty"`
	Recoverable bool      `json:"recoverable"`
}

// Metadata records per-call accounting. TokensUsed and LatencyMS are pointers:
// not every provider path reports them.
type Metadata struct {
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
	TokensUsed  *int      `json:"tokens_used,omitempty"`
	LatencyMS   *float64  `json:"latency_ms,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// NewMetadata returns metadata stamped with the current time.
func NewMetadata(provider, model string) Metadata {
	return Metadata{
		Provider:  provider,
		Model:     model,
		Timestamp: time.Now(),
	}
}

// ClarifyingQuestion is emitted when the model signals ambiguous intent
// instead of producing an action.
type ClarifyingQuestion struct {
	Question    string   `json:"question"`
	Context     string   `json:"context"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// GenerationResult is the normalized outcome of one provider generation,
// whichever provider in the chain produced it.
type GenerationResult struct {
	Success             bool                 `json:"success"`
	Provider            string               `json:"provider"`
	Model               string               `json:"model"`
	RawOutput           string               `json:"raw_output"`
	Action              *Action              `json:"action,omitempty"`
	ActionSequence      *ActionSequence      `json:"action_sequence,omitempty"`
	ClarifyingQuestions []ClarifyingQuestion `json:"clarifying_questions,omitempty"`
	Reasoning           string               `json:"reasoning,omitempty"`
	Metadata            Metadata             `json:"metadata"`
	Error               *GenerationError     `json:"error,omitempty"`
}

// Actions flattens the parsed outcome into the ordered execution list:
// the single action if present, else the sequence's actions.
func (r *GenerationResult) Actions() []Action {
	if r.Action != nil {
		return []Action{*r.Action}
	}
	if r.ActionSequence != nil {
		return r.ActionSequence.Actions
	}
	return nil
}

// Status is the envelope outcome.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusError               Status = "error"
	StatusClarificationNeeded Status = "clarification_needed"
	StatusPartial             Status = "partial"
)

// Response is the envelope returned to the caller for every routed command.
type Response struct {
	Status           Status            `json:"status"`
	LLMResponse      *GenerationResult `json:"llm_response,omitempty"`
	Message          string            `json:"message"`
	ActionsToExecute []Action          `json:"actions_to_execute"`
	Warnings         []string          `json:"warnings,omitempty"`
}

// ErrorResponse builds an error envelope with an empty action list.
func ErrorResponse(message string) *Response {
	return &Response{
		Status:           StatusError,
		Message:          message,
		ActionsToExecute: []Action{},
	}
}
