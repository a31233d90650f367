package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
	"github.com/smallnest/agentpatterns/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckpointStore(t *testing.T) {
	storetest.Run(t, NewMemoryCheckpointStore())
}

func TestMemoryCheckpointStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCheckpointStore()

	cp := storetest.Checkpoint("cp-1", "t", 1, "x")
	require.NoError(t, s.Save(ctx, cp))
	cp.State[0] = '['
	cp.Next[0] = "changed"

	loaded, err := s.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.True(t, json.Valid(loaded.State))
	assert.Equal(t, []string{"x"}, loaded.Next)
}

func TestMemoryCheckpointStore_Registered(t *testing.T) {
	s, err := store.Open(context.Background(), config.CheckpointConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCheckpointStore{}, s)
}
