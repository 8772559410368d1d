// internal/storage/schema.go
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
	CREATE TABLE IF NOT EXISTS movies (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		genre TEXT,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS renters (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS rentals (
		id UUID PRIMARY KEY,
		movie_id UUID NOT NULL REFERENCES movies (id),
		renter_id UUID NOT NULL REFERENCES renters (id),
		rented_at TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		returned_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_rentals_renter_returned ON rentals (renter_id, returned_at);
`

// EnsureSchema creates the tables the services persist into. Every
// statement is idempotent, so running it on an initialised database is
// a no-op.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
