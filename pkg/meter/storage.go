package meter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventDraft carries everything an adapter needs to append a usage event.
// The cumulative AfterAmount is never part of the draft: adapters compute it
// inside their serialization scope from the freshly re-read latest row, so
// two concurrent appends to the same stream can never both derive their
// total from the same prior row.
type EventDraft struct {
	ReferenceID   string
	ReferenceType string
	FeatureKey    string
	Event         string
	Amount        int64

	// ResetDue instructs the adapter to rebase the stream onto ResetValue,
	// recording Boundary as the new reset marker. The adapter ignores the
	// instruction when the freshly-read row already carries a marker at or
	// past Boundary (a concurrent writer applied the same reset first).
	ResetDue   bool
	ResetValue int64
	Boundary   time.Time

	// CreatedAt is assigned by the orchestrator clock; adapters nudge it
	// forward if needed to keep stream timestamps strictly increasing.
	CreatedAt time.Time
}

// Storage is the append-only ledger contract.
//
// Append must execute as a single serializable unit per stream: re-read the
// current latest row, compute the new cumulative value from it, insert.
// Implementations may use a per-stream lock, a database transaction, or an
// optimistic concurrency token; a detected race surfaces as
// ErrConcurrentAppend and the orchestrator retries.
//
// FindLatest reads may proceed concurrently with in-flight appends, but
// their results must never feed a later append without re-validation.
type Storage interface {
	// FindLatest returns the most recent event for the stream, optionally
	// filtered to a specific event tag (empty means any). Returns (nil, nil)
	// when no matching event exists.
	FindLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*UsageEvent, error)

	// Append materializes the draft against the stream's current latest row
	// and persists it, returning the stored event.
	Append(ctx context.Context, draft EventDraft) (*UsageEvent, error)
}

// materialize builds the concrete event from a draft and the freshly-read
// latest row, applying the cumulative invariants:
//
//   - reset crossing: AfterAmount = ResetValue + Amount, marker = Boundary
//   - first event:    AfterAmount = Amount
//   - otherwise:      AfterAmount = latest.AfterAmount + Amount
//
// Adapters must call this inside their serialization scope.
func (d EventDraft) materialize(latest *UsageEvent) UsageEvent {
	ev := UsageEvent{
		ID:            uuid.New(),
		ReferenceID:   d.ReferenceID,
		ReferenceType: d.ReferenceType,
		FeatureKey:    d.FeatureKey,
		Event:         d.Event,
		Amount:        d.Amount,
		CreatedAt:     d.CreatedAt,
	}
	if ev.Event == "" {
		ev.Event = EventUse
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	switch {
	case d.ResetDue && (latest == nil || latest.LastResetAt.Before(d.Boundary)):
		ev.AfterAmount = d.ResetValue + d.Amount
		ev.LastResetAt = d.Boundary
	case latest == nil:
		ev.AfterAmount = d.Amount
	default:
		ev.AfterAmount = latest.AfterAmount + d.Amount
		ev.LastResetAt = latest.LastResetAt
	}

	// Keep CreatedAt strictly increasing within the stream even when the
	// orchestrator clock has lower resolution than the append rate.
	if latest != nil && !ev.CreatedAt.After(latest.CreatedAt) {
		ev.CreatedAt = latest.CreatedAt.Add(time.Microsecond)
	}

	return ev
}
