// Package storetest checks that a CheckpointStore behaves like the others.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/smallnest/agentpatterns/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checkpoint builds a checkpoint for thread with a small JSON state.
func Checkpoint(id, thread string, version int, next ...string) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        id,
		ThreadID:  thread,
		NodeName:  "node-" + id,
		Next:      next,
		State:     json.RawMessage(`{"topic":"go","count":` + itoa(version) + `}`),
		Metadata:  map[string]any{"source": "test"},
		Timestamp: time.Date(2024, 1, 1, 0, 0, version, 0, time.UTC),
		Version:   version,
	}
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

// Run exercises Save, Load, List, Delete and Clear against s. The store must
// start empty.
func Run(t *testing.T, s store.CheckpointStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Checkpoint("cp-2", "thread-a", 2)))
	require.NoError(t, s.Save(ctx, Checkpoint("cp-1", "thread-a", 1, "next-node")))
	require.NoError(t, s.Save(ctx, Checkpoint("cp-9", "thread-b", 1)))

	loaded, err := s.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "thread-a", loaded.ThreadID)
	assert.Equal(t, "node-cp-1", loaded.NodeName)
	assert.Equal(t, []string{"next-node"}, loaded.Next)
	assert.JSONEq(t, `{"topic":"go","count":1}`, string(loaded.State))
	assert.Equal(t, "test", loaded.Metadata["source"])
	assert.Equal(t, 1, loaded.Version)
	assert.True(t, loaded.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)))

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	list, err := s.List(ctx, "thread-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cp-1", list[0].ID)
	assert.Equal(t, "cp-2", list[1].ID)

	latest, err := store.Latest(ctx, s, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, "cp-2", latest.ID)
	assert.True(t, latest.Done())

	updated := Checkpoint("cp-2", "thread-a", 2, "again")
	require.NoError(t, s.Save(ctx, updated))
	loaded, err = s.Load(ctx, "cp-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"again"}, loaded.Next)

	require.NoError(t, s.Delete(ctx, "cp-1"))
	_, err = s.Load(ctx, "cp-1")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	require.NoError(t, s.Clear(ctx, "thread-a"))
	list, err = s.List(ctx, "thread-a")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.List(ctx, "thread-b")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
