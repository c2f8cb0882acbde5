package meter

import (
	"time"

	"github.com/google/uuid"
)

// Reserved event tags. Callers may use any other free-form tag.
const (
	// EventUse is the default tag for consumption events.
	EventUse = "use"
	// EventReset is reserved for scheduler-triggered reset rows.
	EventReset = "reset"
)

// UsageEvent is an immutable, append-only ledger row. A stream is the set of
// all events sharing (ReferenceID, FeatureKey), totally ordered by CreatedAt.
type UsageEvent struct {
	ID            uuid.UUID `json:"id" bson:"id"`
	ReferenceID   string    `json:"reference_id" bson:"reference_id"`
	ReferenceType string    `json:"reference_type" bson:"reference_type"`
	FeatureKey    string    `json:"feature_key" bson:"feature_key"`

	// Event is a free-form tag, "use" by default; "reset" is reserved.
	Event string `json:"event" bson:"event"`

	// Amount is the signed delta applied by this event, zero for pure resets.
	Amount int64 `json:"amount" bson:"amount"`

	// AfterAmount is the cumulative value following this event.
	AfterAmount int64 `json:"after_amount" bson:"after_amount"`

	// LastResetAt is the boundary marker: the upcoming boundary recorded when
	// the stream last crossed a reset, carried forward on ordinary events.
	// Zero when the stream has never reset. Monotonically non-decreasing
	// within a stream.
	LastResetAt time.Time `json:"last_reset_at" bson:"last_reset_at"`

	// CreatedAt is the event timestamp and the stream ordering key,
	// strictly increasing within a stream.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// StreamKey returns the canonical key identifying a usage stream.
func StreamKey(referenceID, featureKey string) string {
	return referenceID + ":" + featureKey
}
