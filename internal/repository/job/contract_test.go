package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/ahmethakanbesel/jobmanager/internal/job"
)

// runStoreContract exercises behaviour every domain.Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) domain.Store) {
	t.Run("store and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := newRecord("job1")

		require.NoError(t, s.Store(ctx, rec.JobID, rec))
		got, err := s.Get(ctx, rec.JobID)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update is partial", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := newRecord("job2")
		require.NoError(t, s.Store(ctx, rec.JobID, rec))

		started := rec.CreatedAt.Add(time.Second)
		require.NoError(t, s.Update(ctx, rec.JobID, domain.StartPatch(started)))

		got, err := s.Get(ctx, rec.JobID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRunning, got.Status)
		require.NotNil(t, got.StartedAt)
		assert.True(t, started.Equal(*got.StartedAt))
		assert.Equal(t, rec.InputData, got.InputData, "untouched fields survive")
		assert.Equal(t, rec.RunID, got.RunID)
		assert.Nil(t, got.CompletedAt)
		assert.Nil(t, got.Result)
		assert.Nil(t, got.Error)

		done := started.Add(2 * time.Second)
		result := map[string]any{"status_code": int64(200), "nested": map[string]any{"ok": true}}
		require.NoError(t, s.Update(ctx, rec.JobID, domain.CompletePatch(result, done)))

		got, err = s.Get(ctx, rec.JobID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, result, got.Result)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, done.Equal(*got.CompletedAt))
		assert.True(t, started.Equal(*got.StartedAt))
	})

	t.Run("failure keeps error", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := newRecord("job1")
		require.NoError(t, s.Store(ctx, rec.JobID, rec))
		require.NoError(t, s.Update(ctx, rec.JobID, domain.StartPatch(rec.CreatedAt)))
		require.NoError(t, s.Update(ctx, rec.JobID, domain.FailPatch("boom", rec.CreatedAt)))

		got, err := s.Get(ctx, rec.JobID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, got.Status)
		require.NotNil(t, got.Error)
		assert.Equal(t, "boom", *got.Error)
		assert.Nil(t, got.Result)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := uuid.NewString()
		err := s.Update(ctx, id, domain.StartPatch(time.Now()))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, id, domain.Patch{}), domain.ErrNotFound)

		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "update must not create records")
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rec := newRecord("job2")
		require.NoError(t, s.Store(ctx, rec.JobID, rec))

		require.NoError(t, s.Delete(ctx, rec.JobID))
		_, err := s.Get(ctx, rec.JobID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, rec.JobID), domain.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, b := newRecord("job1"), newRecord("job2")
		require.NoError(t, s.Store(ctx, a.JobID, a))
		require.NoError(t, s.Store(ctx, b.JobID, b))

		jobs, err := s.List(ctx)
		require.NoError(t, err)
		byID := make(map[string]domain.Record, len(jobs))
		for _, j := range jobs {
			byID[j.JobID] = j
		}
		require.Contains(t, byID, a.JobID)
		require.Contains(t, byID, b.JobID)
		assert.Equal(t, a.Type, byID[a.JobID].Type)
		assert.Equal(t, b.InputData, byID[b.JobID].InputData)

		require.NoError(t, s.Delete(ctx, a.JobID))
		jobs, err = s.List(ctx)
		require.NoError(t, err)
		for _, j := range jobs {
			assert.NotEqual(t, a.JobID, j.JobID)
		}
	})

	t.Run("concurrent updates to different jobs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		recs := make([]*domain.Record, 8)
		for i := range recs {
			recs[i] = newRecord("job1")
			require.NoError(t, s.Store(ctx, recs[i].JobID, recs[i]))
		}

		var wg sync.WaitGroup
		for _, rec := range recs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				now := time.Now().UTC()
				assert.NoError(t, s.Update(ctx, rec.JobID, domain.StartPatch(now)))
				assert.NoError(t, s.Update(ctx, rec.JobID, domain.CompletePatch(map[string]any{"id": rec.JobID}, now)))
			}()
		}
		wg.Wait()

		for _, rec := range recs {
			got, err := s.Get(ctx, rec.JobID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, got.Status)
			assert.Equal(t, rec.JobID, got.Result["id"])
		}
	})
}

func newRecord(jobType string) *domain.Record {
	return &domain.Record{
		JobID:  uuid.NewString(),
		RunID:  uuid.NewString(),
		Type:   jobType,
		Status: domain.StatusPending,
		InputData: map[string]any{
			"input1": "hello",
			"input2": map[string]any{"count": int64(3), "tags": []any{"a", "b"}, "ratio": 0.5},
		},
		// Millisecond precision survives every backend's time encoding.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(*testing.T) domain.Store { return NewMemoryStore() })
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord("job1")
	require.NoError(t, s.Store(ctx, rec.JobID, rec))

	rec.InputData["input1"] = "mutated"
	got, err := s.Get(ctx, rec.JobID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.InputData["input1"])

	got.InputData["input1"] = "mutated again"
	again, err := s.Get(ctx, rec.JobID)
	require.NoError(t, err)
	assert.Equal(t, "hello", again.InputData["input1"])
}
