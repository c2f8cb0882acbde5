package meter

// Status is the limit evaluation outcome for a cumulative value.
type Status string

const (
	StatusInLimit  Status = "in-limit"
	StatusAboveMax Status = "above-max-limit"
	StatusBelowMin Status = "below-min-limit"
)

// EvaluateLimit evaluates value against optional bounds. Max is checked
// first, then min; both bounds are inclusive. Nil means unconfigured, so a
// limit of exactly zero still constrains.
func EvaluateLimit(minLimit, maxLimit *int64, value int64) Status {
	if maxLimit != nil && value > *maxLimit {
		return StatusAboveMax
	}
	if minLimit != nil && value < *minLimit {
		return StatusBelowMin
	}
	return StatusInLimit
}
