package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each namespace in one Redis hash, field per key.
// Search ranks by keyword overlap.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on client. An empty prefix defaults to
// "patterns:memory:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "patterns:memory:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(ns Namespace) string {
	return s.prefix + ns.String()
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, key string, value map[string]any) error {
	now := s.now().UTC()
	item := Item{Namespace: ns, Key: key, Value: value, CreatedAt: now, UpdatedAt: now}

	old, err := s.Get(ctx, ns, key)
	switch {
	case err == nil:
		item.CreatedAt = old.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal memory item: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(ns), key, data).Err(); err != nil {
		return fmt.Errorf("save memory item: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) (*Item, error) {
	data, err := s.client.HGet(ctx, s.key(ns), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load memory item: %w", err)
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal memory item: %w", err)
	}
	return &item, nil
}

func (s *RedisStore) Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchResult, error) {
	items, err := s.List(ctx, ns)
	if err != nil {
		return nil, err
	}
	return scoreKeywords(items, query, limit), nil
}

func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := s.client.HDel(ctx, s.key(ns), key).Err(); err != nil {
		return fmt.Errorf("delete memory item: %w", err)
	}
	return nil
}

// List returns the items of ns sorted by key.
func (s *RedisStore) List(ctx context.Context, ns Namespace) ([]*Item, error) {
	all, err := s.client.HGetAll(ctx, s.key(ns)).Result()
	if err != nil {
		return nil, fmt.Errorf("list memory items: %w", err)
	}
	out := make([]*Item, 0, len(all))
	for _, data := range all {
		var item Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("unmarshal memory item: %w", err)
		}
		out = append(out, &item)
	}
	sortItems(out)
	return out, nil
}

func sortItems(items []*Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
}
