package meter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
)

// yamlSource loads feature definitions and overrides from a YAML document,
// so plans can ship as configuration files. Function-valued slots (hooks,
// authorize) cannot be expressed in YAML; attach them in code after loading
// by re-registering the feature.
//
// Document shape:
//
//	features:
//	  api_calls:
//	    max_limit: 1000
//	    reset_cadence: monthly
//	    reset_value: 0
//	    details:
//	      title: API calls
//	overrides:
//	  pro:
//	    api_calls:
//	      max_limit: 100000
type yamlSource struct {
	raw []byte
	err error
}

// NewYAMLSource returns a FeatureSource reading one YAML document from r.
func NewYAMLSource(r io.Reader) FeatureSource {
	raw, err := io.ReadAll(r)
	return &yamlSource{raw: raw, err: err}
}

type yamlFeature struct {
	MaxLimit     *int64         `yaml:"max_limit"`
	MinLimit     *int64         `yaml:"min_limit"`
	ResetCadence string         `yaml:"reset_cadence"`
	ResetValue   *int64         `yaml:"reset_value"`
	Details      map[string]any `yaml:"details"`
}

type yamlDocument struct {
	Features  map[string]yamlFeature            `yaml:"features"`
	Overrides map[string]map[string]yamlFeature `yaml:"overrides"`
}

func (s *yamlSource) Load(ctx context.Context) (map[string]Feature, map[string]Override, error) {
	if s.err != nil {
		return nil, nil, errors.Join(ErrFailedToLoadFeatures, s.err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(s.raw, &doc); err != nil {
		return nil, nil, errors.Join(ErrFailedToLoadFeatures, err)
	}

	features := make(map[string]Feature, len(doc.Features))
	for key, yf := range doc.Features {
		f := Feature{
			Key:      key,
			MaxLimit: yf.MaxLimit,
			MinLimit: yf.MinLimit,
			Details:  yf.Details,
		}
		if yf.ResetCadence != "" {
			c, err := cadence.Parse(yf.ResetCadence)
			if err != nil {
				return nil, nil, errors.Join(ErrInvalidFeatureDefinition,
					fmt.Errorf("feature %q: %w", key, err))
			}
			f.ResetCadence = c
		}
		if yf.ResetValue != nil {
			f.ResetValue = *yf.ResetValue
		}
		features[key] = f
	}

	overrides := make(map[string]Override, len(doc.Overrides))
	for ovKey, patches := range doc.Overrides {
		ov := make(Override, len(patches))
		for featureKey, yf := range patches {
			if _, ok := doc.Features[featureKey]; !ok {
				return nil, nil, errors.Join(ErrInvalidFeatureDefinition,
					fmt.Errorf("override %q patches unknown feature %q", ovKey, featureKey))
			}
			p := FeaturePatch{
				MaxLimit:   yf.MaxLimit,
				MinLimit:   yf.MinLimit,
				ResetValue: yf.ResetValue,
				Details:    yf.Details,
			}
			if yf.ResetCadence != "" {
				c, err := cadence.Parse(yf.ResetCadence)
				if err != nil {
					return nil, nil, errors.Join(ErrInvalidFeatureDefinition,
						fmt.Errorf("override %q, feature %q: %w", ovKey, featureKey, err))
				}
				p.ResetCadence = &c
			}
			ov[featureKey] = p
		}
		overrides[ovKey] = ov
	}

	return features, overrides, nil
}
