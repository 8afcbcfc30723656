package quota

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

func TestFileStore_MissingFileIsZeroState(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.QuotaState{}, state)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "quota.json")
	store := NewFileStore(path)
	ctx := context.Background()

	last := time.Date(2026, time.February, 11, 18, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, model.QuotaState{Count: 2, LastRunTimestamp: last}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.LastRunTimestamp.Equal(last))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}
