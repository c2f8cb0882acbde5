package cadence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
)

func TestIsDue(t *testing.T) {
	t.Parallel()

	now := mustTime(t, "2025-03-10T14:25:13Z")

	t.Run("never is never due", func(t *testing.T) {
		t.Parallel()

		due := cadence.IsDue(nil, cadence.Never, now)
		assert.False(t, due.Due)
		assert.True(t, due.UpcomingBoundary.IsZero())
	})

	t.Run("empty cadence behaves like never", func(t *testing.T) {
		t.Parallel()

		due := cadence.IsDue(nil, cadence.Cadence(""), now)
		assert.False(t, due.Due)
	})

	t.Run("nil last boundary is always due", func(t *testing.T) {
		t.Parallel()

		for _, c := range []cadence.Cadence{
			cadence.Hourly, cadence.SixHourly, cadence.Daily,
			cadence.Weekly, cadence.Monthly, cadence.Quarterly, cadence.Yearly,
		} {
			due := cadence.IsDue(nil, c, now)
			require.True(t, due.Due, "cadence %s", c)
			require.True(t, due.UpcomingBoundary.After(now), "cadence %s", c)
		}
	})

	t.Run("recorded upcoming boundary is not due again", func(t *testing.T) {
		t.Parallel()

		first := cadence.IsDue(nil, cadence.Monthly, now)
		require.True(t, first.Due)

		// A reset row records the upcoming boundary; checking again before
		// that boundary passes must not fire.
		recorded := first.UpcomingBoundary
		again := cadence.IsDue(&recorded, cadence.Monthly, now)
		assert.False(t, again.Due)
		assert.Equal(t, first.UpcomingBoundary, again.UpcomingBoundary)
	})

	t.Run("due again after the boundary passes", func(t *testing.T) {
		t.Parallel()

		first := cadence.IsDue(nil, cadence.Monthly, now)
		recorded := first.UpcomingBoundary

		later := recorded.Add(time.Hour)
		next := cadence.IsDue(&recorded, cadence.Monthly, later)
		assert.True(t, next.Due)
		assert.True(t, next.UpcomingBoundary.After(recorded))
	})

	t.Run("now exactly on a boundary advances past it", func(t *testing.T) {
		t.Parallel()

		onBoundary := mustTime(t, "2025-04-01T00:00:00Z")
		due := cadence.IsDue(nil, cadence.Monthly, onBoundary)
		require.True(t, due.Due)
		assert.Equal(t, mustTime(t, "2025-05-01T00:00:00Z"), due.UpcomingBoundary)
	})

	t.Run("stale boundary from a prior period is due", func(t *testing.T) {
		t.Parallel()

		stale := mustTime(t, "2025-02-01T00:00:00Z")
		due := cadence.IsDue(&stale, cadence.Monthly, now)
		assert.True(t, due.Due)
		assert.Equal(t, mustTime(t, "2025-04-01T00:00:00Z"), due.UpcomingBoundary)
	})
}
