package meter

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the logger used for after-hook failures.
// Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock injects the time source used for reset decisions and event
// timestamps. Defaults to time.Now in UTC. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxRetries bounds how many times a detected append race restarts the
// read-modify-write cycle before surfacing ErrConcurrentAppend. Default 3.
func WithMaxRetries(n int) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}
