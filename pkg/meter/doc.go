// Package meter implements a usage metering and reset scheduling engine for
// quota-bounded features.
//
// Features are registered once at process configuration time with optional
// min/max limits, a reset cadence, and lifecycle hooks. Effective limits are
// resolved through a layered override hierarchy: base definition, then a
// plan-level override selected by an override key, then per-customer limit
// patches. Consumption is recorded in an append-only per-stream ledger whose
// cumulative totals stay correct under concurrent writers; calendar-aligned
// resets are decided by the cadence package and recorded as zero-amount
// reset rows.
//
// Key concepts:
//
//   - Feature: immutable definition of a metered, quota-bounded capability
//   - Override: a named partial-feature patch applied for tagged customers
//   - Stream: all usage events sharing one (reference ID, feature key) pair
//   - Storage: the append-only ledger contract with race-free appends
//   - Service: the orchestrator exposing Consume, Check, and Sync
//
// Basic usage:
//
//	registry := meter.NewRegistry()
//	registry.Register(meter.Feature{
//	    Key:          "api_calls",
//	    MaxLimit:     meter.Limit(1000),
//	    ResetCadence: cadence.Monthly,
//	})
//
//	svc := meter.NewService(registry, meter.NewMemoryStorage(), customerStore)
//
//	event, err := svc.Consume(ctx, meter.ConsumeParams{
//	    ReferenceID: "user-1",
//	    FeatureKey:  "api_calls",
//	    Amount:      3,
//	})
//
//	result, err := svc.Check(ctx, "user-1", "api_calls", "")
//	if result.Status == meter.StatusAboveMax {
//	    // deny further usage
//	}
//
// Storage implementations ship for memory, PostgreSQL (pgx), Redis
// (optimistic WATCH transactions), and MongoDB (per-stream sequence with a
// unique index). All satisfy the same serialized read-modify-write contract.
package meter
