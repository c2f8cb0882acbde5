package meter

import (
	"context"
	"maps"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
	"github.com/dmitrymomot/meterkit/pkg/customer"
)

// Feature is the immutable definition of a metered, quota-bounded capability.
// Registered once at process configuration time, read-only thereafter.
type Feature struct {
	// Key uniquely identifies the feature.
	Key string

	// MaxLimit and MinLimit bound the cumulative value. Nil means unbounded;
	// a pointer to zero is a configured, binding limit.
	MaxLimit *int64
	MinLimit *int64

	// ResetCadence controls automatic usage resets. The zero value and
	// cadence.Never both mean accumulated usage never resets.
	ResetCadence cadence.Cadence

	// ResetValue is the cumulative baseline after a reset fires.
	ResetValue int64

	// Details holds descriptive metadata, opaque to the engine.
	Details map[string]any

	// Authorize gates consumption when present; absent means allowed.
	Authorize AuthorizeFunc

	// Hooks run around the mutating path of Consume.
	Hooks Hooks
}

// Limit is a convenience for building optional limit values inline.
func Limit(v int64) *int64 {
	return &v
}

// AuthorizeFunc decides whether the request may consume the feature.
type AuthorizeFunc func(ctx context.Context, hc HookContext) bool

// HookFunc is a lifecycle callback invoked around a ledger mutation.
type HookFunc func(ctx context.Context, hc HookContext) error

// Hooks is the closed set of lifecycle slots a feature may define.
// Before blocks the mutating path and aborts it on error; After runs
// post-commit and its failures are logged, never surfaced.
type Hooks struct {
	Before HookFunc
	After  HookFunc
}

// HookContext is the fixed value passed to authorize predicates and hooks.
type HookContext struct {
	Customer *customer.Customer
	Feature  Feature
	Usage    UsageDelta
}

// UsageDelta describes the mutation a hook observes.
type UsageDelta struct {
	Amount       int64
	BeforeAmount int64
	AfterAmount  int64
}

// FeaturePatch is a partial feature used to overwrite fields of a base
// definition for customers tagged with an override key. Nil fields leave the
// base untouched; function-valued slots are replaced wholesale when present,
// never combined.
type FeaturePatch struct {
	MaxLimit     *int64
	MinLimit     *int64
	ResetCadence *cadence.Cadence
	ResetValue   *int64
	Details      map[string]any
	Authorize    AuthorizeFunc
	Hooks        *Hooks
}

// Override is a set of feature patches keyed by feature key, registered
// under an override key such as a plan name. Overrides never introduce new
// feature keys.
type Override map[string]FeaturePatch

// apply overlays the patch onto f field by field, shallow replacement only.
func (p FeaturePatch) apply(f Feature) Feature {
	if p.MaxLimit != nil {
		f.MaxLimit = p.MaxLimit
	}
	if p.MinLimit != nil {
		f.MinLimit = p.MinLimit
	}
	if p.ResetCadence != nil {
		f.ResetCadence = *p.ResetCadence
	}
	if p.ResetValue != nil {
		f.ResetValue = *p.ResetValue
	}
	if p.Details != nil {
		f.Details = maps.Clone(p.Details)
	}
	if p.Authorize != nil {
		f.Authorize = p.Authorize
	}
	if p.Hooks != nil {
		f.Hooks = *p.Hooks
	}
	return f
}

// applyCustomerPatch overlays a persisted per-customer limit patch.
// Customer patches carry data fields only; hooks stay untouched.
func applyCustomerPatch(f Feature, p customer.Patch) Feature {
	if p.MaxLimit != nil {
		f.MaxLimit = p.MaxLimit
	}
	if p.MinLimit != nil {
		f.MinLimit = p.MinLimit
	}
	if p.ResetCadence != nil {
		f.ResetCadence = *p.ResetCadence
	}
	if p.ResetValue != nil {
		f.ResetValue = *p.ResetValue
	}
	return f
}
