package cadence

import "time"

// NextBoundary returns the next period turnover for the given cadence,
// strictly after t for every cadence except Never. Boundaries land on
// top-of-hour for sub-daily cadences and on local midnight otherwise,
// in t's location. Never returns t unchanged; callers must special-case
// it before relying on the strict-future contract.
func NextBoundary(t time.Time, c Cadence) time.Time {
	year, month, day := t.Date()
	loc := t.Location()

	switch c {
	case Hourly:
		return time.Date(year, month, day, t.Hour()+1, 0, 0, 0, loc)
	case SixHourly:
		// Next block among 00:00, 06:00, 12:00, 18:00; hour 24 normalizes
		// to the following day's midnight.
		block := (t.Hour()/6 + 1) * 6
		return time.Date(year, month, day, block, 0, 0, 0, loc)
	case Daily:
		return time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	case Weekly:
		// Week starts on Monday. A reference time already on Monday rolls
		// a full week forward to keep the boundary strictly in the future.
		days := (8 - int(t.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return time.Date(year, month, day+days, 0, 0, 0, 0, loc)
	case Monthly:
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	case Quarterly:
		// First day of the next quarter-start month (Jan/Apr/Jul/Oct);
		// month 13 normalizes to January of the following year.
		next := time.Month(((int(month)-1)/3+1)*3 + 1)
		return time.Date(year, next, 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}
