package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitor_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uploads := t.TempDir()

	old := NewJob("/old", false)
	require.NoError(t, store.Create(ctx, old))
	old.Status = StatusCompleted
	require.NoError(t, store.Update(ctx, old))
	require.NoError(t, os.MkdirAll(filepath.Join(uploads, old.ID), 0o755))

	active := NewJob("/active", false)
	require.NoError(t, store.Create(ctx, active))

	j := NewJanitor(store, uploads, time.Hour, zerolog.Nop())
	j.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoDirExists(t, filepath.Join(uploads, old.ID))

	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, active.ID)
	assert.NoError(t, err)
}

func TestJanitor_KeepsRecentJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := NewJob("/recent", false)
	require.NoError(t, store.Create(ctx, job))
	job.Status = StatusFailed
	require.NoError(t, store.Update(ctx, job))

	n, err := NewJanitor(store, "", time.Hour, zerolog.Nop()).Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJanitor_StartStop(t *testing.T) {
	j := NewJanitor(NewMemoryStore(), "", time.Hour, zerolog.Nop())

	assert.Error(t, j.Start("not a schedule"))
	require.NoError(t, j.Start("@every 1h"))
	assert.Error(t, j.Start("@hourly"))
	j.Stop()
	j.Stop()
}
