// Package store persists workflow checkpoints so a conversation thread can be
// resumed by a later invocation, possibly in another process.
//
// Backends live in sub packages and register themselves by name:
//
//	import _ "github.com/smallnest/agentpatterns/store/sqlite"
//
//	cps, err := store.Open(ctx, cfg.Checkpoint)
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smallnest/agentpatterns/config"
)

// ErrCheckpointNotFound is returned when no checkpoint matches a lookup.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is the state of a thread after one step of a workflow run.
type Checkpoint struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	// NodeName is the node that produced State.
	NodeName string `json:"node_name"`
	// Next lists the nodes still to run; empty once the run reached its end.
	Next      []string        `json:"next,omitempty"`
	State     json.RawMessage `json:"state"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// Done reports whether the run that wrote cp had finished.
func (cp *Checkpoint) Done() bool {
	return len(cp.Next) == 0
}

// CheckpointStore defines checkpoint persistence.
type CheckpointStore interface {
	// Save stores a checkpoint, replacing one with the same ID.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns the checkpoints of a thread ordered by version.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints of a thread.
	Clear(ctx context.Context, threadID string) error
}

// Latest returns the highest version checkpoint of a thread.
func Latest(ctx context.Context, s CheckpointStore, threadID string) (*Checkpoint, error) {
	cps, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(cps) == 0 {
		return nil, fmt.Errorf("%w: thread %s", ErrCheckpointNotFound, threadID)
	}
	latest := cps[0]
	for _, cp := range cps[1:] {
		if cp.Version > latest.Version {
			latest = cp
		}
	}
	return latest, nil
}

// SortByVersion orders checkpoints by version, then timestamp.
func SortByVersion(cps []*Checkpoint) {
	sort.SliceStable(cps, func(i, j int) bool {
		if cps[i].Version != cps[j].Version {
			return cps[i].Version < cps[j].Version
		}
		return cps[i].Timestamp.Before(cps[j].Timestamp)
	})
}

// Factory opens a backend from configuration.
type Factory func(ctx context.Context, cfg config.CheckpointConfig) (CheckpointStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a backend available to Open. It panics on a duplicate name.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, dup := factories[name]; dup {
		panic("store: Register called twice for backend " + name)
	}
	factories[name] = f
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.CheckpointConfig) (CheckpointStore, error) {
	factoriesMu.RLock()
	f, ok := factories[cfg.Backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown checkpoint backend %q (registered: %v)", cfg.Backend, Backends())
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s checkpoint store: %w", cfg.Backend, err)
	}
	return s, nil
}
