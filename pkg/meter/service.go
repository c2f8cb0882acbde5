package meter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
	"github.com/dmitrymomot/meterkit/pkg/customer"
)

// Service is the consumption orchestrator: it composes feature resolution,
// reset scheduling, the usage ledger, limit evaluation, and lifecycle hooks.
type Service interface {
	// Consume applies a signed usage delta to a stream and returns the
	// appended event. The before-hook can abort the operation; after-hook
	// failures are logged and never surfaced.
	Consume(ctx context.Context, params ConsumeParams) (*UsageEvent, error)

	// Check evaluates the stream's current cumulative value against the
	// effective limits without mutating anything.
	Check(ctx context.Context, referenceID, featureKey, overrideKey string) (CheckResult, error)

	// Sync forces a reset-due check and appends a zero-amount reset row if
	// due. No-op for features without a reset cadence; idempotent until the
	// next boundary passes.
	Sync(ctx context.Context, referenceID, featureKey, overrideKey string) (*UsageEvent, error)

	// ResolveFeature returns the effective feature after all override
	// layers. An empty referenceID skips the customer layer.
	ResolveFeature(ctx context.Context, referenceID, featureKey, overrideKey string) (Feature, error)
}

// ConsumeParams identifies the stream and the delta to apply.
type ConsumeParams struct {
	ReferenceID string
	FeatureKey  string
	// OverrideKey selects a plan-level override set. When empty, the
	// customer's stored key applies, then any key carried in the context.
	OverrideKey string
	// Amount is the signed delta; negative amounts release usage.
	Amount int64
	// Event tags the ledger row, "use" when empty. "reset" is reserved for
	// scheduler-triggered rows.
	Event string
}

// CheckResult is the outcome of a non-mutating limit check.
type CheckResult struct {
	Status  Status
	Current int64
	Feature Feature
}

type service struct {
	registry   *Registry
	storage    Storage
	customers  customer.Store
	log        *slog.Logger
	now        func() time.Time
	maxRetries int
}

// NewService creates the orchestrator. Panics if registry, storage, or
// customers is nil to fail fast during initialization.
func NewService(registry *Registry, storage Storage, customers customer.Store, opts ...ServiceOption) Service {
	if registry == nil {
		panic("meter: registry is required")
	}
	if storage == nil {
		panic("meter: storage is required")
	}
	if customers == nil {
		panic("meter: customer store is required")
	}

	s := &service{
		registry:   registry,
		storage:    storage,
		customers:  customers,
		log:        slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume runs the full mutation path: resolve, authorize, read, reset
// check, compute, before-hook, append, after-hook. A detected append race
// retries the read-modify-write cycle up to the configured bound.
func (s *service) Consume(ctx context.Context, p ConsumeParams) (*UsageEvent, error) {
	cust, err := s.customers.Get(ctx, p.ReferenceID)
	if err != nil {
		return nil, err
	}

	feat, err := s.resolve(ctx, cust, p.FeatureKey, p.OverrideKey)
	if err != nil {
		return nil, err
	}

	hc := HookContext{Customer: cust, Feature: feat}
	if feat.Authorize != nil && !feat.Authorize(ctx, hc) {
		return nil, ErrUnauthorized
	}

	event := p.Event
	if event == "" {
		event = EventUse
	}

	var appended *UsageEvent
	for attempt := 0; attempt < max(s.maxRetries, 1); attempt++ {
		latest, err := s.storage.FindLatest(ctx, p.ReferenceID, p.FeatureKey, "")
		if err != nil {
			return nil, err
		}

		var beforeAmount int64
		var lastBoundary *time.Time
		if latest != nil {
			beforeAmount = latest.AfterAmount
			if !latest.LastResetAt.IsZero() {
				lb := latest.LastResetAt
				lastBoundary = &lb
			}
		}

		now := s.now()
		due := cadence.IsDue(lastBoundary, feat.ResetCadence, now)

		draft := EventDraft{
			ReferenceID:   p.ReferenceID,
			ReferenceType: cust.ReferenceType,
			FeatureKey:    p.FeatureKey,
			Event:         event,
			Amount:        p.Amount,
			CreatedAt:     now,
		}
		afterAmount := beforeAmount + p.Amount
		if due.Due {
			draft.ResetDue = true
			draft.ResetValue = feat.ResetValue
			draft.Boundary = due.UpcomingBoundary
			beforeAmount = feat.ResetValue
			afterAmount = feat.ResetValue + p.Amount
		}

		if feat.Hooks.Before != nil {
			hc.Usage = UsageDelta{Amount: p.Amount, BeforeAmount: beforeAmount, AfterAmount: afterAmount}
			if err := feat.Hooks.Before(ctx, hc); err != nil {
				return nil, errors.Join(ErrBeforeHookFailed, err)
			}
		}

		// Cancellation before the append leaves no ledger row.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		appended, err = s.storage.Append(ctx, draft)
		if err != nil {
			if errors.Is(err, ErrConcurrentAppend) {
				continue
			}
			return nil, err
		}
		break
	}
	if appended == nil {
		return nil, ErrConcurrentAppend
	}

	s.runAfterHook(ctx, feat, hc, appended)

	return appended, nil
}

// Check reads the stream's latest cumulative value and evaluates it against
// the effective limits. No mutation, no reset consideration.
func (s *service) Check(ctx context.Context, referenceID, featureKey, overrideKey string) (CheckResult, error) {
	cust, err := s.customers.Get(ctx, referenceID)
	if err != nil {
		return CheckResult{}, err
	}

	feat, err := s.resolve(ctx, cust, featureKey, overrideKey)
	if err != nil {
		return CheckResult{}, err
	}

	latest, err := s.storage.FindLatest(ctx, referenceID, featureKey, "")
	if err != nil {
		return CheckResult{}, err
	}

	var current int64
	if latest != nil {
		current = latest.AfterAmount
	}

	return CheckResult{
		Status:  EvaluateLimit(feat.MinLimit, feat.MaxLimit, current),
		Current: current,
		Feature: feat,
	}, nil
}

// Sync appends a zero-amount reset row when a boundary has been crossed.
// Returns (nil, nil) when no reset is due or the cadence never resets.
func (s *service) Sync(ctx context.Context, referenceID, featureKey, overrideKey string) (*UsageEvent, error) {
	cust, err := s.customers.Get(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	feat, err := s.resolve(ctx, cust, featureKey, overrideKey)
	if err != nil {
		return nil, err
	}

	if !feat.ResetCadence.Resets() {
		return nil, nil
	}

	for attempt := 0; attempt < max(s.maxRetries, 1); attempt++ {
		latest, err := s.storage.FindLatest(ctx, referenceID, featureKey, "")
		if err != nil {
			return nil, err
		}

		var lastBoundary *time.Time
		if latest != nil && !latest.LastResetAt.IsZero() {
			lb := latest.LastResetAt
			lastBoundary = &lb
		}

		now := s.now()
		due := cadence.IsDue(lastBoundary, feat.ResetCadence, now)
		if !due.Due {
			return nil, nil
		}

		appended, err := s.storage.Append(ctx, EventDraft{
			ReferenceID:   referenceID,
			ReferenceType: cust.ReferenceType,
			FeatureKey:    featureKey,
			Event:         EventReset,
			ResetDue:      true,
			ResetValue:    feat.ResetValue,
			Boundary:      due.UpcomingBoundary,
			CreatedAt:     now,
		})
		if err != nil {
			if errors.Is(err, ErrConcurrentAppend) {
				continue
			}
			return nil, err
		}
		return appended, nil
	}

	return nil, ErrConcurrentAppend
}

// ResolveFeature exposes the effective feature after all override layers.
func (s *service) ResolveFeature(ctx context.Context, referenceID, featureKey, overrideKey string) (Feature, error) {
	var cust *customer.Customer
	if referenceID != "" {
		var err error
		cust, err = s.customers.Get(ctx, referenceID)
		if err != nil {
			return Feature{}, err
		}
	}
	return s.resolve(ctx, cust, featureKey, overrideKey)
}

// resolve picks the override key (explicit param wins over the customer's
// stored key, which wins over a context-carried key) and merges all layers.
func (s *service) resolve(ctx context.Context, cust *customer.Customer, featureKey, overrideKey string) (Feature, error) {
	if overrideKey == "" && cust != nil {
		overrideKey = cust.OverrideKey
	}
	if overrideKey == "" {
		if key, ok := GetOverrideKeyFromContext(ctx); ok {
			overrideKey = key
		}
	}

	var patch *customer.Patch
	if cust != nil {
		if p, ok := cust.FeatureOverrides[featureKey]; ok {
			patch = &p
		}
	}

	return s.registry.Resolve(featureKey, overrideKey, patch)
}

// runAfterHook invokes the after-hook post-commit. The mutation is already
// durable, so failures (and panics) are logged and never propagated; there
// is no automatic retry.
func (s *service) runAfterHook(ctx context.Context, feat Feature, hc HookContext, ev *UsageEvent) {
	if feat.Hooks.After == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "after hook panicked",
				slog.String("feature_key", feat.Key),
				slog.String("reference_id", ev.ReferenceID),
				slog.Any("panic", r),
			)
		}
	}()

	hc.Usage = UsageDelta{
		Amount:       ev.Amount,
		BeforeAmount: ev.AfterAmount - ev.Amount,
		AfterAmount:  ev.AfterAmount,
	}
	if err := feat.Hooks.After(ctx, hc); err != nil {
		s.log.ErrorContext(ctx, "after hook failed",
			slog.String("feature_key", feat.Key),
			slog.String("reference_id", ev.ReferenceID),
			slog.String("error", err.Error()),
		)
	}
}
