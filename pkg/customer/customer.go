package customer

import (
	"maps"
	"time"

	"github.com/dmitrymomot/meterkit/pkg/cadence"
)

// Customer anchors metered usage to a caller-assigned identity.
type Customer struct {
	// ReferenceID is the unique, stable identifier assigned by the caller.
	ReferenceID string `json:"reference_id"`
	// ReferenceType is a free-form classification: "user", "org", "team", ...
	ReferenceType string `json:"reference_type"`

	// Contact metadata, opaque to the engine.
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// OverrideKey selects a plan-level override set registered with the
	// feature registry. Empty means base definitions apply.
	OverrideKey string `json:"override_key,omitempty"`

	// FeatureOverrides are per-feature limit patches keyed by feature key.
	// They win over both the base definition and any plan-level override.
	FeatureOverrides map[string]Patch `json:"feature_overrides,omitempty"`

	// Metadata holds opaque caller data such as external billing IDs.
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is a partial limit configuration applied on top of a resolved
// feature. Nil fields leave the underlying value untouched; a pointer to
// zero is a real, binding value.
type Patch struct {
	MaxLimit     *int64           `json:"max_limit,omitempty"`
	MinLimit     *int64           `json:"min_limit,omitempty"`
	ResetCadence *cadence.Cadence `json:"reset_cadence,omitempty"`
	ResetValue   *int64           `json:"reset_value,omitempty"`
}

// clone returns a deep copy so store implementations never leak shared maps.
func (c *Customer) clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	out.FeatureOverrides = maps.Clone(c.FeatureOverrides)
	out.Metadata = maps.Clone(c.Metadata)
	return &out
}
