// Package memory keeps checkpoints in process memory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
)

func init() {
	store.Register("memory", func(context.Context, config.CheckpointConfig) (store.CheckpointStore, error) {
		return NewMemoryCheckpointStore(), nil
	})
}

// MemoryCheckpointStore is a CheckpointStore backed by a map.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
}

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]*store.Checkpoint)}
}

func clone(cp *store.Checkpoint) *store.Checkpoint {
	c := *cp
	c.State = append([]byte(nil), cp.State...)
	c.Next = append([]string(nil), cp.Next...)
	if cp.Metadata != nil {
		c.Metadata = make(map[string]any, len(cp.Metadata))
		for k, v := range cp.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func (m *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[checkpoint.ID] = clone(checkpoint)
	return nil
}

func (m *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	return clone(cp), nil
}

func (m *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*store.Checkpoint
	for _, cp := range m.checkpoints {
		if cp.ThreadID == threadID {
			out = append(out, clone(cp))
		}
	}
	store.SortByVersion(out)
	return out, nil
}

func (m *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checkpoints, checkpointID)
	return nil
}

func (m *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cp := range m.checkpoints {
		if cp.ThreadID == threadID {
			delete(m.checkpoints, id)
		}
	}
	return nil
}
