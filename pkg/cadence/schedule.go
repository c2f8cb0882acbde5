package cadence

import "time"

// Due is the result of a reset-due check.
type Due struct {
	// Due reports whether the stream has a reset not yet reflected in it.
	Due bool
	// UpcomingBoundary is the next boundary strictly after "now". It is the
	// marker a reset row must record so the following IsDue call turns false.
	// Zero for Never.
	UpcomingBoundary time.Time
}

// IsDue decides whether a reset boundary has occurred that is not yet
// reflected in a stream. lastBoundary is the boundary marker recorded on the
// stream's most recent event, or nil when the stream has never reset.
//
// The comparison point is the upcoming boundary relative to now, not the most
// recently passed one: a stream is due when its recorded marker is nil or
// lies before the upcoming boundary. NextBoundary is applied repeatedly until
// the result is strictly after now, guarding against now landing exactly on
// a boundary.
func IsDue(lastBoundary *time.Time, c Cadence, now time.Time) Due {
	if !c.Resets() {
		return Due{}
	}

	upcoming := NextBoundary(now, c)
	for !upcoming.After(now) {
		upcoming = NextBoundary(upcoming, c)
	}

	return Due{
		Due:              lastBoundary == nil || lastBoundary.Before(upcoming),
		UpcomingBoundary: upcoming,
	}
}
