// Package file keeps checkpoints as JSON documents in a directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
)

func init() {
	store.Register("file", func(_ context.Context, cfg config.CheckpointConfig) (store.CheckpointStore, error) {
		return NewFileCheckpointStore(cfg.Path)
	})
}

// FileCheckpointStore writes one <id>.json file per checkpoint.
type FileCheckpointStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileCheckpointStore creates the directory when missing.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if path == "" {
		return nil, errors.New("checkpoint directory not set")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{path: path}, nil
}

func (s *FileCheckpointStore) file(id string) string {
	return filepath.Join(s.path, filepath.Base(id)+".json")
}

// Save writes the checkpoint through a temporary file and a rename.
func (s *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.path, ".cp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file(checkpoint.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) read(name string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", name, err)
	}
	return &cp, nil
}

func (s *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, err := s.read(s.file(checkpointID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

func (s *FileCheckpointStore) all() ([]*store.Checkpoint, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}
	var out []*store.Checkpoint
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		cp, err := s.read(filepath.Join(s.path, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *FileCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []*store.Checkpoint
	for _, cp := range all {
		if cp.ThreadID == threadID {
			out = append(out, cp)
		}
	}
	store.SortByVersion(out)
	return out, nil
}

func (s *FileCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.file(checkpointID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.all()
	if err != nil {
		return err
	}
	for _, cp := range all {
		if cp.ThreadID != threadID {
			continue
		}
		if err := os.Remove(s.file(cp.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to clear checkpoints: %w", err)
		}
	}
	return nil
}
