// No-op history backend used when caching is disabled.

package storage

import "context"

// DiscardStore drops every record and reports empty history.
type DiscardStore struct{}

// NewDiscard returns the no-op history log.
func NewDiscard() *DiscardStore { return &DiscardStore{} }

func (*DiscardStore) SaveConversation(context.Context, Conversation) error { return nil }

func (*DiscardStore) SaveDesignState(context.Context, DesignState) error { return nil }

func (*DiscardStore) SaveAction(context.Context, ActionRecord) error { return nil }

func (*DiscardStore) RecentConversations(context.Context, int) ([]Conversation, error) {
	return []Conversation{}, nil
}

func (*DiscardStore) RecentActions(context.Context, int) ([]ActionRecord, error) {
	return []ActionRecord{}, nil
}

func (*DiscardStore) Clear(context.Context) error { return nil }

func (*DiscardStore) Close() error { return nil }

var _ Store = (*DiscardStore)(nil)
