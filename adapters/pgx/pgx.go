// Package pgx implements gatekeep's storage contract on PostgreSQL via
// pgxpool. Schema management is handled by embedded goose migrations; call
// RunMigrations before constructing the adapter.
package pgx

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smontero/gatekeep"
)

type Adapter struct {
	pool *pgxpool.Pool
}

var _ gatekeep.AuthStorage = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
	}
}

// storeErr wraps backend failures so callers can classify them as transient.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", gatekeep.ErrStoreUnavailable, err)
}
