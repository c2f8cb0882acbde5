package cadence

import "errors"

var (
	ErrUnknownCadence = errors.New("unknown reset cadence")
)
