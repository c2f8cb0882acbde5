// Package cadence provides calendar-aligned reset period arithmetic for
// usage metering.
//
// A Cadence names how often accumulated usage rolls over: hourly, 6-hourly,
// daily, weekly (Monday start), monthly, quarterly, yearly, or never.
// NextBoundary computes the next period turnover strictly after a reference
// time, and IsDue decides whether a stream whose last recorded boundary is
// known has a pending reset.
//
// All functions are pure and operate in the reference time's location, so
// callers control the timezone in which periods align.
//
// Basic usage:
//
//	due := cadence.IsDue(lastBoundary, cadence.Monthly, time.Now())
//	if due.Due {
//	    // append a reset row carrying due.UpcomingBoundary
//	}
package cadence
