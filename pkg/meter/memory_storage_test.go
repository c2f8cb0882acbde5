package meter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/meterkit/pkg/meter"
)

func TestMemoryStorageFindLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		ev, err := storage.FindLatest(ctx, "user-1", "api_calls", "")
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	t.Run("returns most recent event", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		for _, amount := range []int64{3, 4, 5} {
			_, err := storage.Append(ctx, meter.EventDraft{
				ReferenceID: "user-1", FeatureKey: "api_calls", Amount: amount,
			})
			require.NoError(t, err)
		}

		ev, err := storage.FindLatest(ctx, "user-1", "api_calls", "")
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, int64(5), ev.Amount)
		assert.Equal(t, int64(12), ev.AfterAmount)
	})

	t.Run("event filter finds last reset row", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		boundary := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

		_, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 7,
		})
		require.NoError(t, err)
		_, err = storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls",
			Event: meter.EventReset, ResetDue: true, Boundary: boundary,
		})
		require.NoError(t, err)
		_, err = storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 2,
		})
		require.NoError(t, err)

		reset, err := storage.FindLatest(ctx, "user-1", "api_calls", meter.EventReset)
		require.NoError(t, err)
		require.NotNil(t, reset)
		assert.Equal(t, meter.EventReset, reset.Event)
		assert.Equal(t, int64(0), reset.Amount)
		assert.Equal(t, boundary, reset.LastResetAt)
	})

	t.Run("streams are isolated", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		_, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 9,
		})
		require.NoError(t, err)

		ev, err := storage.FindLatest(ctx, "user-1", "exports", "")
		require.NoError(t, err)
		assert.Nil(t, ev)

		ev, err = storage.FindLatest(ctx, "user-2", "api_calls", "")
		require.NoError(t, err)
		assert.Nil(t, ev)
	})
}

func TestMemoryStorageAppend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first event equals its amount", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		ev, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 42,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), ev.AfterAmount)
		assert.Equal(t, meter.EventUse, ev.Event)
		assert.True(t, ev.LastResetAt.IsZero())
	})

	t.Run("cumulative chain", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		amounts := []int64{10, -3, 7, 0, 5}
		var total int64
		for _, a := range amounts {
			ev, err := storage.Append(ctx, meter.EventDraft{
				ReferenceID: "user-1", FeatureKey: "api_calls", Amount: a,
			})
			require.NoError(t, err)
			total += a
			assert.Equal(t, total, ev.AfterAmount)
		}
	})

	t.Run("reset crossing rebases onto reset value", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		boundary := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

		_, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 900,
		})
		require.NoError(t, err)

		ev, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 5,
			ResetDue: true, ResetValue: 100, Boundary: boundary,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(105), ev.AfterAmount)
		assert.Equal(t, boundary, ev.LastResetAt)
	})

	t.Run("reset instruction ignored when marker already advanced", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		boundary := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

		_, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 3,
			ResetDue: true, ResetValue: 0, Boundary: boundary,
		})
		require.NoError(t, err)

		// A second writer carrying the same boundary decision must not
		// rebase again; its delta accumulates on top.
		ev, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 4,
			ResetDue: true, ResetValue: 0, Boundary: boundary,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), ev.AfterAmount)
		assert.Equal(t, boundary, ev.LastResetAt)
	})

	t.Run("boundary marker carried forward on ordinary events", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		boundary := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

		_, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 1,
			ResetDue: true, Boundary: boundary,
		})
		require.NoError(t, err)

		ev, err := storage.Append(ctx, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, boundary, ev.LastResetAt)
	})

	t.Run("created at strictly increasing within a stream", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		ts := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

		// Same orchestrator timestamp on every draft; the adapter must
		// still keep stream order strict.
		for i := 0; i < 5; i++ {
			_, err := storage.Append(ctx, meter.EventDraft{
				ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 1, CreatedAt: ts,
			})
			require.NoError(t, err)
		}

		events := storage.Events("user-1", "api_calls")
		require.Len(t, events, 5)
		for i := 1; i < len(events); i++ {
			assert.True(t, events[i].CreatedAt.After(events[i-1].CreatedAt))
		}
	})

	t.Run("cancelled context appends nothing", func(t *testing.T) {
		t.Parallel()

		storage := meter.NewMemoryStorage()
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := storage.Append(cancelled, meter.EventDraft{
			ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 1,
		})
		require.Error(t, err)
		assert.Equal(t, 0, storage.Len("user-1", "api_calls"))
	})
}

func TestMemoryStorageConcurrentAppends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := meter.NewMemoryStorage()

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.Append(ctx, meter.EventDraft{
				ReferenceID: "user-1", FeatureKey: "api_calls", Amount: 1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	latest, err := storage.FindLatest(ctx, "user-1", "api_calls", "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(writers), latest.AfterAmount)
	assert.Equal(t, writers, storage.Len("user-1", "api_calls"))
}
