package cadence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestNextBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cadence cadence.Cadence
		ref     string
		want    string
	}{
		{"hourly mid-hour", cadence.Hourly, "2025-03-10T14:25:13Z", "2025-03-10T15:00:00Z"},
		{"hourly exact top of hour", cadence.Hourly, "2025-03-10T14:00:00Z", "2025-03-10T15:00:00Z"},
		{"hourly end of day", cadence.Hourly, "2025-03-10T23:59:59Z", "2025-03-11T00:00:00Z"},
		{"6-hourly morning", cadence.SixHourly, "2025-03-10T04:30:00Z", "2025-03-10T06:00:00Z"},
		{"6-hourly midday", cadence.SixHourly, "2025-03-10T12:00:01Z", "2025-03-10T18:00:00Z"},
		{"6-hourly past 18h rolls to next day", cadence.SixHourly, "2025-03-10T19:45:00Z", "2025-03-11T00:00:00Z"},
		{"6-hourly exact block boundary", cadence.SixHourly, "2025-03-10T06:00:00Z", "2025-03-10T12:00:00Z"},
		{"daily mid-day", cadence.Daily, "2025-03-10T09:00:00Z", "2025-03-11T00:00:00Z"},
		{"daily exact midnight", cadence.Daily, "2025-03-10T00:00:00Z", "2025-03-11T00:00:00Z"},
		{"daily end of month", cadence.Daily, "2025-01-31T15:00:00Z", "2025-02-01T00:00:00Z"},
		{"weekly from wednesday", cadence.Weekly, "2025-03-12T10:00:00Z", "2025-03-17T00:00:00Z"}, // Wed -> next Mon
		{"weekly from sunday", cadence.Weekly, "2025-03-16T23:00:00Z", "2025-03-17T00:00:00Z"},
		{"weekly from monday rolls a full week", cadence.Weekly, "2025-03-10T00:00:00Z", "2025-03-17T00:00:00Z"},
		{"monthly mid-month", cadence.Monthly, "2025-03-10T12:00:00Z", "2025-04-01T00:00:00Z"},
		{"monthly exact first of month", cadence.Monthly, "2025-03-01T00:00:00Z", "2025-04-01T00:00:00Z"},
		{"monthly december wraps year", cadence.Monthly, "2025-12-15T12:00:00Z", "2026-01-01T00:00:00Z"},
		{"quarterly from february", cadence.Quarterly, "2025-02-10T12:00:00Z", "2025-04-01T00:00:00Z"},
		{"quarterly exact quarter start", cadence.Quarterly, "2025-04-01T00:00:00Z", "2025-07-01T00:00:00Z"},
		{"quarterly fourth quarter wraps year", cadence.Quarterly, "2025-11-20T08:00:00Z", "2026-01-01T00:00:00Z"},
		{"yearly mid-year", cadence.Yearly, "2025-06-15T12:00:00Z", "2026-01-01T00:00:00Z"},
		{"yearly exact january first", cadence.Yearly, "2025-01-01T00:00:00Z", "2026-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := cadence.NextBoundary(mustTime(t, tt.ref), tt.cadence)
			assert.Equal(t, mustTime(t, tt.want), got)
		})
	}
}

func TestNextBoundaryStrictlyFuture(t *testing.T) {
	t.Parallel()

	cadences := []cadence.Cadence{
		cadence.Hourly, cadence.SixHourly, cadence.Daily,
		cadence.Weekly, cadence.Monthly, cadence.Quarterly, cadence.Yearly,
	}

	// Sweep a year in uneven steps so boundaries of every cadence are hit
	// exactly at least once.
	ref := mustTime(t, "2025-01-01T00:00:00Z")
	end := mustTime(t, "2026-01-02T00:00:00Z")
	for ts := ref; ts.Before(end); ts = ts.Add(5*time.Hour + 59*time.Minute) {
		for _, c := range cadences {
			next := cadence.NextBoundary(ts, c)
			require.True(t, next.After(ts), "cadence %s at %s returned %s", c, ts, next)
		}
	}
}

func TestNextBoundaryNever(t *testing.T) {
	t.Parallel()

	ref := mustTime(t, "2025-03-10T14:25:13Z")
	assert.Equal(t, ref, cadence.NextBoundary(ref, cadence.Never))
}

func TestNextBoundaryKeepsLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*60*60)
	ref := time.Date(2025, time.March, 10, 23, 30, 0, 0, loc)

	next := cadence.NextBoundary(ref, cadence.Daily)

	assert.Equal(t, loc, next.Location())
	assert.Equal(t, time.Date(2025, time.March, 11, 0, 0, 0, 0, loc), next)
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("recognized values", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"hourly", "6-hourly", "daily", "weekly", "monthly", "quarterly", "yearly", "never"} {
			c, err := cadence.Parse(s)
			require.NoError(t, err)
			assert.Equal(t, cadence.Cadence(s), c)
		}
	})

	t.Run("unknown value", func(t *testing.T) {
		t.Parallel()

		_, err := cadence.Parse("fortnightly")
		assert.ErrorIs(t, err, cadence.ErrUnknownCadence)
	})

	t.Run("empty value", func(t *testing.T) {
		t.Parallel()

		_, err := cadence.Parse("")
		assert.ErrorIs(t, err, cadence.ErrUnknownCadence)
	})
}

func TestResets(t *testing.T) {
	t.Parallel()

	assert.False(t, cadence.Never.Resets())
	assert.False(t, cadence.Cadence("").Resets())
	assert.True(t, cadence.Monthly.Resets())
	assert.True(t, cadence.Hourly.Resets())
}
