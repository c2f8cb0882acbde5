package meter

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStorage implements Storage on a MongoDB collection using an
// optimistic per-stream sequence number: every event carries seq =
// latest.seq + 1, and a unique index on (reference_id, feature_key, seq)
// turns a concurrent append into a duplicate-key error that is retried and
// eventually surfaced as ErrConcurrentAppend.
type MongoStorage struct {
	coll        *mongo.Collection
	maxAttempts int
}

// MongoStorageOption configures a MongoStorage.
type MongoStorageOption func(*MongoStorage)

// WithAppendAttempts sets how many duplicate-key retries an append makes
// before giving up with ErrConcurrentAppend.
func WithAppendAttempts(attempts int) MongoStorageOption {
	return func(s *MongoStorage) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// NewMongoStorage creates a ledger on top of a collection, typically
// db.Collection("usage_events"). Panics if coll is nil to fail fast during
// initialization. Call EnsureIndexes once at startup.
func NewMongoStorage(coll *mongo.Collection, opts ...MongoStorageOption) *MongoStorage {
	if coll == nil {
		panic("meter: mongo collection is required")
	}
	s := &MongoStorage{
		coll:        coll,
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the unique stream-sequence index the append protocol
// depends on, plus the latest-row lookup index.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "reference_id", Value: 1},
				{Key: "feature_key", Value: 1},
				{Key: "seq", Value: -1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "reference_id", Value: 1},
				{Key: "feature_key", Value: 1},
				{Key: "event", Value: 1},
				{Key: "seq", Value: -1},
			},
		},
	})
	return err
}

// mongoEvent wraps a UsageEvent with the per-stream sequence number that
// orders the stream and backs the optimistic concurrency check.
type mongoEvent struct {
	UsageEvent `bson:",inline"`
	Seq        int64 `bson:"seq"`
}

func (s *MongoStorage) findLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*mongoEvent, error) {
	filter := bson.D{
		{Key: "reference_id", Value: referenceID},
		{Key: "feature_key", Value: featureKey},
	}
	if eventFilter != "" {
		filter = append(filter, bson.E{Key: "event", Value: eventFilter})
	}

	var ev mongoEvent
	err := s.coll.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&ev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

// FindLatest returns the most recent event for the stream, optionally
// filtered by event tag.
func (s *MongoStorage) FindLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*UsageEvent, error) {
	ev, err := s.findLatest(ctx, referenceID, featureKey, eventFilter)
	if err != nil {
		return nil, errors.Join(ErrFailedToFetchLatestEvent, err)
	}
	if ev == nil {
		return nil, nil
	}
	out := ev.UsageEvent
	return &out, nil
}

// Append re-reads the stream's latest document and inserts the materialized
// event with the next sequence number. A duplicate-key rejection means a
// concurrent writer claimed the sequence first; the cycle retries from the
// fresh read.
func (s *MongoStorage) Append(ctx context.Context, draft EventDraft) (*UsageEvent, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		latest, err := s.findLatest(ctx, draft.ReferenceID, draft.FeatureKey, "")
		if err != nil {
			return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
		}

		var (
			prior *UsageEvent
			seq   int64 = 1
		)
		if latest != nil {
			prior = &latest.UsageEvent
			seq = latest.Seq + 1
		}

		ev := draft.materialize(prior)
		if _, err := s.coll.InsertOne(ctx, mongoEvent{UsageEvent: ev, Seq: seq}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
		}
		return &ev, nil
	}

	return nil, ErrConcurrentAppend
}
