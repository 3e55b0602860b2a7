// Redis history backend.
//
// Each record type lives in its own list, newest first via LPUSH. LTRIM
// after every push keeps the lists bounded.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	conversationsKey = "fusionmcp:conversations"
	designStatesKey  = "fusionmcp:design_states"
	actionsKey       = "fusionmcp:actions"
)

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the Redis server at the given URL and verifies the
// connection with a ping.
func OpenRedis(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// SaveConversation appends a conversation record.
func (s *RedisStore) SaveConversation(ctx context.Context, c Conversation) error {
	fill(&c.ID, &c.Timestamp)
	return s.push(ctx, conversationsKey, c)
}

// SaveDesignState appends a design state snapshot.
func (s *RedisStore) SaveDesignState(ctx context.Context, d DesignState) error {
	fill(&d.ID, &d.Timestamp)
	return s.push(ctx, designStatesKey, d)
}

// SaveAction appends an action record.
func (s *RedisStore) SaveAction(ctx context.Context, a ActionRecord) error {
	fill(&a.ID, &a.Timestamp)
	return s.push(ctx, actionsKey, a)
}

// RecentConversations returns the newest records in chronological order.
func (s *RedisStore) RecentConversations(ctx context.Context, limit int) ([]Conversation, error) {
	return recentList[Conversation](ctx, s.client, conversationsKey, limit)
}

// RecentActions returns the newest records in chronological order.
func (s *RedisStore) RecentActions(ctx context.Context, limit int) ([]ActionRecord, error) {
	return recentList[ActionRecord](ctx, s.client, actionsKey, limit)
}

// Clear drops all records.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, conversationsKey, designStatesKey, actionsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// push prepends a record and trims the list in one round trip.
func (s *RedisStore) push(ctx context.Context, key string, rec interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, maxRecords-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push record: %w", err)
	}
	return nil
}

// recentList reads the newest limit entries and flips them to chronological
// order. LPUSH stores newest first, so index 0 is the latest record.
func recentList[T any](ctx context.Context, client *redis.Client, key string, limit int) ([]T, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}

	raws, err := client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	records := make([]T, 0, len(raws))
	for _, raw := range raws {
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("invalid record in %s: %w", key, err)
		}
		records = append(records, rec)
	}

	slices.Reverse(records)
	return records, nil
}

// Verify RedisStore implements the interface
var _ Store = (*RedisStore)(nil)
