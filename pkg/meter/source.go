package meter

import (
	"context"
	"maps"
)

// FeatureSource defines how feature definitions and overrides are loaded
// into a Registry.
type FeatureSource interface {
	Load(ctx context.Context) (map[string]Feature, map[string]Override, error)
}

// inMemSource implements FeatureSource over maps supplied in code.
type inMemSource struct {
	features  map[string]Feature
	overrides map[string]Override
}

// NewInMemSource returns a FeatureSource serving copies of the given maps.
func NewInMemSource(features map[string]Feature, overrides map[string]Override) FeatureSource {
	return &inMemSource{
		features:  maps.Clone(features),
		overrides: maps.Clone(overrides),
	}
}

func (s *inMemSource) Load(ctx context.Context) (map[string]Feature, map[string]Override, error) {
	features := maps.Clone(s.features)
	overrides := make(map[string]Override, len(s.overrides))
	for key, ov := range s.overrides {
		overrides[key] = maps.Clone(ov)
	}
	return features, overrides, nil
}
