package customer

import (
	"context"
	"embed"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations holds the goose migrations for the customers table.
// Apply them with pg.Migrate before constructing a PostgresStore.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// PostgresStore implements Store backed by PostgreSQL via pgx.
// Override patches and metadata are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store on top of an established pgx pool.
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("customer: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const getCustomerQuery = `
SELECT reference_id, reference_type, name, email, override_key,
       feature_overrides, metadata, created_at, updated_at
FROM customers
WHERE reference_id = $1`

// Get retrieves a customer by reference ID.
func (s *PostgresStore) Get(ctx context.Context, referenceID string) (*Customer, error) {
	var (
		c             Customer
		overridesJSON []byte
		metadataJSON  []byte
	)

	err := s.pool.QueryRow(ctx, getCustomerQuery, referenceID).Scan(
		&c.ReferenceID, &c.ReferenceType, &c.Name, &c.Email, &c.OverrideKey,
		&overridesJSON, &metadataJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, errors.Join(ErrFailedToFetchCustomer, err)
	}

	if len(overridesJSON) > 0 {
		if err := json.Unmarshal(overridesJSON, &c.FeatureOverrides); err != nil {
			return nil, errors.Join(ErrFailedToFetchCustomer, err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return nil, errors.Join(ErrFailedToFetchCustomer, err)
		}
	}

	return &c, nil
}

const upsertCustomerQuery = `
INSERT INTO customers (reference_id, reference_type, name, email, override_key,
                       feature_overrides, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (reference_id) DO UPDATE SET
    reference_type    = EXCLUDED.reference_type,
    name              = EXCLUDED.name,
    email             = EXCLUDED.email,
    override_key      = EXCLUDED.override_key,
    feature_overrides = EXCLUDED.feature_overrides,
    metadata          = EXCLUDED.metadata,
    updated_at        = now()
RETURNING reference_id, reference_type, name, email, override_key,
          feature_overrides, metadata, created_at, updated_at`

// Upsert creates or updates a customer keyed by ReferenceID.
func (s *PostgresStore) Upsert(ctx context.Context, c *Customer) (*Customer, error) {
	if c == nil || c.ReferenceID == "" {
		return nil, ErrMissingReferenceID
	}

	overridesJSON, err := json.Marshal(c.FeatureOverrides)
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveCustomer, err)
	}
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveCustomer, err)
	}

	var (
		stored       Customer
		storedOvJSON []byte
		storedMdJSON []byte
	)
	err = s.pool.QueryRow(ctx, upsertCustomerQuery,
		c.ReferenceID, c.ReferenceType, c.Name, c.Email, c.OverrideKey,
		overridesJSON, metadataJSON,
	).Scan(
		&stored.ReferenceID, &stored.ReferenceType, &stored.Name, &stored.Email,
		&stored.OverrideKey, &storedOvJSON, &storedMdJSON,
		&stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveCustomer, err)
	}

	if len(storedOvJSON) > 0 {
		if err := json.Unmarshal(storedOvJSON, &stored.FeatureOverrides); err != nil {
			return nil, errors.Join(ErrFailedToSaveCustomer, err)
		}
	}
	if len(storedMdJSON) > 0 {
		if err := json.Unmarshal(storedMdJSON, &stored.Metadata); err != nil {
			return nil, errors.Join(ErrFailedToSaveCustomer, err)
		}
	}

	return &stored, nil
}
