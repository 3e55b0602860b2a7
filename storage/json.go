// JSON file history backend.
//
// The whole log lives in one file, mirrored in memory. Writes go through a
// temp file and rename so a crash never leaves a half-written log.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// historyFile is the on-disk layout.
type historyFile struct {
	Conversations  []Conversation `json:"conversations"`
	DesignStates   []DesignState  `json:"design_states"`
	ActionsHistory []ActionRecord `json:"actions_history"`
}

// JSONStore implements Store on a single JSON file.
type JSONStore struct {
	mu   sync.Mutex
	path string
	data historyFile
}

// OpenJSON opens or creates a JSON history file at the given path.
// Creates parent directories if they don't exist.
func OpenJSON(path string) (*JSONStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	s := &JSONStore{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("failed to parse history file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := s.persist(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read history file %s: %w", path, err)
	}

	return s, nil
}

// SaveConversation appends a conversation record.
func (s *JSONStore) SaveConversation(_ context.Context, c Conversation) error {
	fill(&c.ID, &c.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Conversations = clip(append(s.data.Conversations, c), maxRecords)
	return s.persist()
}

// SaveDesignState appends a design state snapshot.
func (s *JSONStore) SaveDesignState(_ context.Context, d DesignState) error {
	fill(&d.ID, &d.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DesignStates = clip(append(s.data.DesignStates, d), maxRecords)
	return s.persist()
}

// SaveAction appends an action record.
func (s *JSONStore) SaveAction(_ context.Context, a ActionRecord) error {
	fill(&a.ID, &a.Timestamp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ActionsHistory = clip(append(s.data.ActionsHistory, a), maxRecords)
	return s.persist()
}

// RecentConversations returns the newest records in chronological order.
func (s *JSONStore) RecentConversations(_ context.Context, limit int) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.data.Conversations, limit), nil
}

// RecentActions returns the newest records in chronological order.
func (s *JSONStore) RecentActions(_ context.Context, limit int) ([]ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.data.ActionsHistory, limit), nil
}

// Clear drops all records.
func (s *JSONStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = historyFile{}
	return s.persist()
}

// Close is a no-op for the file backend.
func (s *JSONStore) Close() error {
	return nil
}

// persist writes the log atomically. Callers hold s.mu.
func (s *JSONStore) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

// clip keeps the newest max entries.
func clip[T any](s []T, max int) []T {
	if len(s) <= max {
		return s
	}
	return append([]T(nil), s[len(s)-max:]...)
}

// lastN copies the newest limit entries in chronological order.
// limit <= 0 copies everything.
func lastN[T any](s []T, limit int) []T {
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	return append([]T(nil), s[len(s)-limit:]...)
}
