// SQLite history backend.
//
// Information Hiding:
// - SQLite connection management hidden behind the Store interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements Store on a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			user_input TEXT NOT NULL,
			llm_response TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			metadata TEXT
		);

		CREATE TABLE IF NOT EXISTS design_states (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			context TEXT NOT NULL,
			geometry_snapshot TEXT
		);

		CREATE TABLE IF NOT EXISTS actions_history (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			action_type TEXT NOT NULL,
			action_data TEXT NOT NULL,
			success INTEGER NOT NULL,
			error_message TEXT
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveConversation appends a conversation record.
func (s *SqliteStore) SaveConversation(ctx context.Context, c Conversation) error {
	fill(&c.ID, &c.Timestamp)

	metadata, err := encodeObject(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations
		(id, timestamp, user_input, llm_response, provider, model, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Timestamp.Format(time.RFC3339Nano),
		c.UserInput,
		c.LLMResponse,
		c.Provider,
		c.Model,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// SaveDesignState appends a design state snapshot.
func (s *SqliteStore) SaveDesignState(ctx context.Context, d DesignState) error {
	fill(&d.ID, &d.Timestamp)

	designContext, err := json.Marshal(d.Context)
	if err != nil {
		return fmt.Errorf("failed to encode design context: %w", err)
	}
	snapshot, err := encodeObject(d.GeometrySnapshot)
	if err != nil {
		return fmt.Errorf("failed to encode geometry snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO design_states
		(id, timestamp, context, geometry_snapshot)
		VALUES (?, ?, ?, ?)`,
		d.ID,
		d.Timestamp.Format(time.RFC3339Nano),
		string(designContext),
		snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to save design state: %w", err)
	}
	return nil
}

// SaveAction appends an action record.
func (s *SqliteStore) SaveAction(ctx context.Context, a ActionRecord) error {
	fill(&a.ID, &a.Timestamp)

	actionData, err := json.Marshal(a.ActionData)
	if err != nil {
		return fmt.Errorf("failed to encode action data: %w", err)
	}

	// Convert empty string to NULL for the optional field
	var errorMessage interface{}
	if a.ErrorMessage != "" {
		errorMessage = a.ErrorMessage
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO actions_history
		(id, timestamp, action_type, action_data, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Timestamp.Format(time.RFC3339Nano),
		a.ActionType,
		string(actionData),
		a.Success,
		errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}
	return nil
}

// RecentConversations returns the newest records in chronological order.
func (s *SqliteStore) RecentConversations(ctx context.Context, limit int) ([]Conversation, error) {
	rows, err := s.queryRecent(ctx, `
		SELECT id, timestamp, user_input, llm_response, provider, model, metadata
		FROM conversations
		ORDER BY rowid DESC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{} // Start with empty slice, not nil
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	// Newest-first from the query, flip to chronological
	slices.Reverse(conversations)
	return conversations, nil
}

// RecentActions returns the newest records in chronological order.
func (s *SqliteStore) RecentActions(ctx context.Context, limit int) ([]ActionRecord, error) {
	rows, err := s.queryRecent(ctx, `
		SELECT id, timestamp, action_type, action_data, success, error_message
		FROM actions_history
		ORDER BY rowid DESC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := []ActionRecord{} // Start with empty slice, not nil
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}

	slices.Reverse(actions)
	return actions, nil
}

// queryRecent runs a newest-first query, bounded when limit > 0.
func (s *SqliteStore) queryRecent(ctx context.Context, query string, limit int) (*sql.Rows, error) {
	if limit > 0 {
		return s.db.QueryContext(ctx, query+" LIMIT ?", limit)
	}
	return s.db.QueryContext(ctx, query)
}

// Clear drops all records.
func (s *SqliteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"conversations", "design_states", "actions_history"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanConversation scans a single conversation row from the result set.
func scanConversation(rows *sql.Rows) (Conversation, error) {
	var c Conversation
	var timestamp string
	var metadata sql.NullString

	err := rows.Scan(
		&c.ID,
		&timestamp,
		&c.UserInput,
		&c.LLMResponse,
		&c.Provider,
		&c.Model,
		&metadata,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to scan conversation: %w", err)
	}

	c.Timestamp, err = parseTimestamp(timestamp)
	if err != nil {
		return Conversation{}, err
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &c.Metadata); err != nil {
			return Conversation{}, fmt.Errorf("invalid metadata in database: %w", err)
		}
	}

	return c, nil
}

// scanAction scans a single action row from the result set.
func scanAction(rows *sql.Rows) (ActionRecord, error) {
	var a ActionRecord
	var timestamp, actionData string
	var errorMessage sql.NullString

	err := rows.Scan(
		&a.ID,
		&timestamp,
		&a.ActionType,
		&actionData,
		&a.Success,
		&errorMessage,
	)
	if err != nil {
		return ActionRecord{}, fmt.Errorf("failed to scan action: %w", err)
	}

	a.Timestamp, err = parseTimestamp(timestamp)
	if err != nil {
		return ActionRecord{}, err
	}
	if err := json.Unmarshal([]byte(actionData), &a.ActionData); err != nil {
		return ActionRecord{}, fmt.Errorf("invalid action data in database: %w", err)
	}
	if errorMessage.Valid {
		a.ErrorMessage = errorMessage.String
	}

	return a, nil
}

// encodeObject marshals an optional map, returning NULL when absent.
func encodeObject(m map[string]interface{}) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q in database: %w", s, err)
	}
	return t, nil
}

// Verify SqliteStore implements the interface
var _ Store = (*SqliteStore)(nil)
