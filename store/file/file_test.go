package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
	"github.com/smallnest/agentpatterns/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStore(t *testing.T) {
	s, err := NewFileCheckpointStore(t.TempDir())
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestFileCheckpointStore_New(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "checkpoints")
	_, err := NewFileCheckpointStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = NewFileCheckpointStore("")
	assert.Error(t, err)
}

func TestFileCheckpointStore_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	s, err := NewFileCheckpointStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), storetest.Checkpoint("cp-1", "t", 1)))

	list, err := s.List(context.Background(), "t")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFileCheckpointStore_Registered(t *testing.T) {
	s, err := store.Open(context.Background(), config.CheckpointConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileCheckpointStore{}, s)
}
