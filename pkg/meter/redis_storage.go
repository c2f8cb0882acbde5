package meter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage on Redis lists with optimistic WATCH
// transactions. Each stream lives in one list key holding JSON-encoded
// events in append order; a concurrent append to a watched key fails the
// transaction and surfaces as ErrConcurrentAppend after local retries.
type RedisStorage struct {
	client      redis.UniversalClient
	keyPrefix   string
	maxAttempts int
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithKeyPrefix sets the key namespace, "meter:" by default.
func WithKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithTxAttempts sets how many times an append retries a failed optimistic
// transaction before giving up with ErrConcurrentAppend.
func WithTxAttempts(attempts int) RedisStorageOption {
	return func(s *RedisStorage) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// NewRedisStorage creates a ledger on top of an established Redis client.
// Panics if client is nil to fail fast during initialization.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) *RedisStorage {
	if client == nil {
		panic("meter: redis client is required")
	}
	s := &RedisStorage{
		client:      client,
		keyPrefix:   "meter:",
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) streamKey(referenceID, featureKey string) string {
	return s.keyPrefix + StreamKey(referenceID, featureKey)
}

// FindLatest walks the stream list from the tail until an event matches the
// filter. Resets and latest rows sit at the tail, so the walk is short.
func (s *RedisStorage) FindLatest(ctx context.Context, referenceID, featureKey, eventFilter string) (*UsageEvent, error) {
	key := s.streamKey(referenceID, featureKey)

	length, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return nil, errors.Join(ErrFailedToFetchLatestEvent, err)
	}

	for i := int64(1); i <= length; i++ {
		raw, err := s.client.LIndex(ctx, key, -i).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, errors.Join(ErrFailedToFetchLatestEvent, err)
		}

		var ev UsageEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, errors.Join(ErrFailedToFetchLatestEvent, err)
		}
		if eventFilter == "" || ev.Event == eventFilter {
			return &ev, nil
		}
	}
	return nil, nil
}

// Append runs the read-modify-write inside a WATCH on the stream key: the
// latest row is re-read under the watch, materialized, and pushed in a
// MULTI/EXEC that aborts if any concurrent writer touched the key.
func (s *RedisStorage) Append(ctx context.Context, draft EventDraft) (*UsageEvent, error) {
	key := s.streamKey(draft.ReferenceID, draft.FeatureKey)
	var appended *UsageEvent

	txf := func(tx *redis.Tx) error {
		var latest *UsageEvent
		raw, err := tx.LIndex(ctx, key, -1).Result()
		switch {
		case err == nil:
			var ev UsageEvent
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				return err
			}
			latest = &ev
		case !errors.Is(err, redis.Nil):
			return err
		}

		ev := draft.materialize(latest)
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, payload)
			return nil
		})
		if err != nil {
			return err
		}
		appended = &ev
		return nil
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return appended, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, errors.Join(ErrFailedToAppendUsageEvent, err)
		}
	}

	return nil, ErrConcurrentAppend
}
