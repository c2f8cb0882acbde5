package cadence

// Cadence names a calendar-aligned reset period.
type Cadence string

const (
	Hourly    Cadence = "hourly"
	SixHourly Cadence = "6-hourly"
	Daily     Cadence = "daily"
	Weekly    Cadence = "weekly"
	Monthly   Cadence = "monthly"
	Quarterly Cadence = "quarterly"
	Yearly    Cadence = "yearly"
	Never     Cadence = "never"
)

// all lists every recognized cadence, used by Parse and Valid.
var all = map[Cadence]struct{}{
	Hourly:    {},
	SixHourly: {},
	Daily:     {},
	Weekly:    {},
	Monthly:   {},
	Quarterly: {},
	Yearly:    {},
	Never:     {},
}

// Valid reports whether c is one of the recognized cadences.
// The empty string is not valid; callers treat it as Never explicitly.
func (c Cadence) Valid() bool {
	_, ok := all[c]
	return ok
}

// Resets reports whether the cadence triggers automatic resets.
// Both Never and the zero value mean "no automatic reset".
func (c Cadence) Resets() bool {
	return c != Never && c != ""
}

// Parse converts a string into a Cadence, returning ErrUnknownCadence
// for unrecognized values.
func Parse(s string) (Cadence, error) {
	c := Cadence(s)
	if !c.Valid() {
		return "", ErrUnknownCadence
	}
	return c, nil
}
