package customer

import "context"

// Store defines the persistence contract the metering engine requires.
type Store interface {
	// Get retrieves a customer by reference ID.
	// Returns ErrCustomerNotFound if no customer exists.
	Get(ctx context.Context, referenceID string) (*Customer, error)

	// Upsert creates or updates a customer keyed by ReferenceID and returns
	// the stored record with timestamps populated.
	Upsert(ctx context.Context, c *Customer) (*Customer, error)
}
