// Package redis stores checkpoints in Redis, indexed per thread by a sorted set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
)

func init() {
	store.Register("redis", func(ctx context.Context, cfg config.CheckpointConfig) (store.CheckpointStore, error) {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = cfg.DSN
		}
		s := NewRedisCheckpointStore(RedisOptions{Addr: addr})
		if err := s.client.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis %s: %w", addr, err)
		}
		return s, nil
	})
}

// RedisCheckpointStore implements store.CheckpointStore using Redis.
type RedisCheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "patterns:"
	TTL      time.Duration // Expiration for checkpoints, default 0 (no expiration)
}

// NewRedisCheckpointStore creates a new Redis checkpoint store
func NewRedisCheckpointStore(opts RedisOptions) *RedisCheckpointStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "patterns:"
	}

	return &RedisCheckpointStore{client: client, prefix: prefix, ttl: opts.TTL}
}

// Close closes the client.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}

func (s *RedisCheckpointStore) checkpointKey(id string) string {
	return fmt.Sprintf("%scheckpoint:%s", s.prefix, id)
}

func (s *RedisCheckpointStore) threadKey(id string) string {
	return fmt.Sprintf("%sthread:%s:checkpoints", s.prefix, id)
}

func (s *RedisCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.checkpointKey(checkpoint.ID), data, s.ttl)

	threadKey := s.threadKey(checkpoint.ThreadID)
	pipe.ZAdd(ctx, threadKey, redis.Z{Score: float64(checkpoint.Version), Member: checkpoint.ID})
	if s.ttl > 0 {
		pipe.Expire(ctx, threadKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}
	return nil
}

func (s *RedisCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(checkpointID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var checkpoint store.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

func (s *RedisCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	ids, err := s.client.ZRange(ctx, s.threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for thread %s: %w", threadID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.checkpointKey(id))
	}

	// MGet returns nil for keys that expired since they were indexed.
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}

	var checkpoints []*store.Checkpoint
	for _, result := range results {
		data, ok := result.(string)
		if !ok {
			continue
		}
		var checkpoint store.Checkpoint
		if err := json.Unmarshal([]byte(data), &checkpoint); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, &checkpoint)
	}
	store.SortByVersion(checkpoints)
	return checkpoints, nil
}

func (s *RedisCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	checkpoint, err := s.Load(ctx, checkpointID)
	if errors.Is(err, store.ErrCheckpointNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.checkpointKey(checkpointID))
	pipe.ZRem(ctx, s.threadKey(checkpoint.ThreadID), checkpointID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *RedisCheckpointStore) Clear(ctx context.Context, threadID string) error {
	threadKey := s.threadKey(threadID)
	ids, err := s.client.ZRange(ctx, threadKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get checkpoints for clearing: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.checkpointKey(id))
	}
	pipe.Del(ctx, threadKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}
