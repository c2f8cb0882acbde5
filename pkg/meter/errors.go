package meter

import "errors"

var (
	// ErrFeatureNotFound is returned for unknown feature keys.
	ErrFeatureNotFound = errors.New("metered feature not found")

	// ErrUnauthorized is returned when a feature's authorize predicate
	// rejects the request. No side effects occur before this check.
	ErrUnauthorized = errors.New("not authorized to use feature")

	// ErrConcurrentAppend signals that a concurrent writer won the
	// serialized append for the same stream. The orchestrator retries a
	// bounded number of times before surfacing it.
	ErrConcurrentAppend = errors.New("concurrent append detected for usage stream")

	// ErrBeforeHookFailed wraps a before-hook error. The operation aborts
	// before any ledger write.
	ErrBeforeHookFailed = errors.New("before hook rejected consumption")

	ErrFailedToLoadFeatures     = errors.New("failed to load feature definitions")
	ErrInvalidFeatureDefinition = errors.New("invalid feature definition")
	ErrFailedToAppendUsageEvent = errors.New("failed to append usage event")
	ErrFailedToFetchLatestEvent = errors.New("failed to fetch latest usage event")
)
