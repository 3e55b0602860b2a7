// Package storage provides the design history log.
//
// Information Hiding:
// - Backend selection (JSON file, SQLite, Redis) behind one interface
// - Record identity and timestamping
// - Retention policy (each log keeps its most recent records)

package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// maxRecords bounds each log; older records are dropped on append.
const maxRecords = 1000

// Conversation records one prompt/response exchange.
type Conversation struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	UserInput   string         `json:"user_input"`
	LLMResponse string         `json:"llm_response"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DesignState records a snapshot of the design context.
type DesignState struct {
	ID               string         `json:"id"`
	Timestamp        time.Time      `json:"timestamp"`
	Context          map[string]any `json:"context"`
	GeometrySnapshot map[string]any `json:"geometry_snapshot,omitempty"`
}

// ActionRecord records an executed (or attempted) design action.
type ActionRecord struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	ActionType   string         `json:"action_type"`
	ActionData   map[string]any `json:"action_data"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Store is the design history log. Recent* methods return records in
// chronological order, the newest `limit` of them; limit <= 0 returns
// everything retained.
type Store interface {
	SaveConversation(ctx context.Context, c Conversation) error
	SaveDesignState(ctx context.Context, s DesignState) error
	SaveAction(ctx context.Context, a ActionRecord) error

	RecentConversations(ctx context.Context, limit int) ([]Conversation, error)
	RecentActions(ctx context.Context, limit int) ([]ActionRecord, error)

	Clear(ctx context.Context) error
	Close() error
}

// fill assigns record identity and timestamp when absent.
func fill(id *string, ts *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if ts.IsZero() {
		*ts = time.Now().UTC()
	}
}
