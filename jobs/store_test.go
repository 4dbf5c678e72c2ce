package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		job := NewJob("/in", false)
		require.NoError(t, s.Create(ctx, job))

		got, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.TaskID, got.TaskID)
		assert.Equal(t, StatusPending, got.Status)

		byTask, err := s.GetByTask(ctx, job.TaskID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, byTask.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetByTask(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.Update(ctx, &Job{ID: "missing"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update keeps result", func(t *testing.T) {
		job := NewJob("/in", true)
		require.NoError(t, s.Create(ctx, job))

		job.Status = StatusCompleted
		job.Result = NewResult(nil)
		require.NoError(t, s.Update(ctx, job))

		got, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		require.NotNil(t, got.Result)
		assert.Equal(t, CompletedMessage, got.Result.Message)
		assert.True(t, got.MultiDoc)
	})

	t.Run("delete finished before", func(t *testing.T) {
		done := NewJob("/done", false)
		running := NewJob("/running", false)
		require.NoError(t, s.Create(ctx, done))
		require.NoError(t, s.Create(ctx, running))

		done.Status = StatusFailed
		require.NoError(t, s.Update(ctx, done))
		running.Status = StatusProcessing
		require.NoError(t, s.Update(ctx, running))

		removed, err := s.DeleteFinishedBefore(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)

		var ids []string
		for _, j := range removed {
			ids = append(ids, j.ID)
		}
		assert.Contains(t, ids, done.ID)
		assert.NotContains(t, ids, running.ID)

		_, err = s.Get(ctx, done.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, running.ID)
		assert.NoError(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	job := NewJob("/in", false)
	require.NoError(t, s.Create(ctx, job))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	got.Status = StatusFailed

	again, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
}

func TestMemoryStore_DeleteRespectsCutoff(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	job := NewJob("/in", false)
	require.NoError(t, s.Create(ctx, job))
	job.Status = StatusCompleted
	require.NoError(t, s.Update(ctx, job))

	removed, err := s.DeleteFinishedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, removed)
}
