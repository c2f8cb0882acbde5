// Package customer defines the customer identity anchor consumed by the
// metering engine and the minimal persistence contract it requires:
// lookup by reference ID and upsert.
//
// A customer is identified by a caller-assigned, stable ReferenceID and
// classified by a free-form ReferenceType ("user", "org", "session", ...).
// Billing-provider identifiers and contact details are opaque metadata.
// A customer may carry an override key selecting a plan-level override set,
// and per-feature limit patches that win over every other override layer.
//
// Two Store implementations ship with the package: an in-memory store for
// tests and single-process setups, and a PostgreSQL store backed by pgx.
package customer
