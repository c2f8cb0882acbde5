package meter

import (
	"context"
	"errors"
	"maps"

	"github.com/dmitrymomot/meterkit/pkg/customer"
)

// Registry holds feature definitions and plan-level overrides.
// Register everything at startup; the registry is treated as immutable
// afterwards and resolution is lock-free.
type Registry struct {
	features  map[string]Feature
	overrides map[string]Override
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		features:  make(map[string]Feature),
		overrides: make(map[string]Override),
	}
}

// NewRegistryFromSource builds a Registry from a FeatureSource.
func NewRegistryFromSource(ctx context.Context, src FeatureSource) (*Registry, error) {
	features, overrides, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadFeatures, err)
	}

	r := NewRegistry()
	for _, f := range features {
		r.Register(f)
	}
	for key, ov := range overrides {
		r.RegisterOverride(key, ov)
	}
	return r, nil
}

// Register sets or replaces a feature definition. Panics on an empty key to
// fail fast during initialization.
func (r *Registry) Register(f Feature) {
	if f.Key == "" {
		panic("meter: feature key cannot be empty")
	}
	r.features[f.Key] = f
}

// RegisterOverride sets or replaces the override set for the given key
// (typically a plan name). Panics on an empty key.
func (r *Registry) RegisterOverride(key string, ov Override) {
	if key == "" {
		panic("meter: override key cannot be empty")
	}
	r.overrides[key] = maps.Clone(ov)
}

// Resolve merges the base feature with the plan-level override selected by
// overrideKey and a per-customer limit patch, in that order of precedence
// (customer wins over plan wins over base). Field replacement is shallow;
// hook callbacks and the authorize predicate are replaced wholesale. The
// merge is pure: the registered definition is never mutated.
//
// Returns ErrFeatureNotFound for unknown feature keys. An unknown
// overrideKey is not an error; that layer simply does not apply.
func (r *Registry) Resolve(featureKey, overrideKey string, patch *customer.Patch) (Feature, error) {
	f, ok := r.features[featureKey]
	if !ok {
		return Feature{}, ErrFeatureNotFound
	}
	f.Details = maps.Clone(f.Details)

	if overrideKey != "" {
		if ov, ok := r.overrides[overrideKey]; ok {
			if p, ok := ov[featureKey]; ok {
				f = p.apply(f)
			}
		}
	}

	if patch != nil {
		f = applyCustomerPatch(f, *patch)
	}

	return f, nil
}
