// internal/rental/repository.go
package rental

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository persists rental records.
type Repository interface {
	Create(ctx context.Context, r *Rental) error
	// Delete removes a record; used only to roll back a rent operation that
	// failed midway.
	Delete(ctx context.Context, id uuid.UUID) error
	// FindActive returns the renter's outstanding rental for the movie, or
	// ErrNoActiveRental.
	FindActive(ctx context.Context, movieID, renterID uuid.UUID) (*Rental, error)
	MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) error
	// ListByRenter returns a page of rental projections ordered by rented_at
	// descending, id ascending as tie-break.
	ListByRenter(ctx context.Context, renterID uuid.UUID, returned bool, page, size int) ([]View, error)
	// ActiveMovieIDs lists the movies with an outstanding rental, for
	// rebuilding the ledger at startup.
	ActiveMovieIDs(ctx context.Context) ([]uuid.UUID, error)
}

const dialectPostgres = "postgres"

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a rental repository backed by PostgreSQL.
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (p *postgresRepository) Create(ctx context.Context, r *Rental) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rentals (id, movie_id, renter_id, rented_at, due_date, returned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.MovieID, r.RenterID, r.RentedAt, r.DueDate, r.ReturnedAt)
	if err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}
	return nil
}

func (p *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rental: %w", err)
	}
	return nil
}

func (p *postgresRepository) FindActive(ctx context.Context, movieID, renterID uuid.UUID) (*Rental, error) {
	var r Rental
	err := p.db.GetContext(ctx, &r, `
		SELECT id, movie_id, renter_id, rented_at, due_date, returned_at
		FROM rentals
		WHERE movie_id = $1 AND renter_id = $2 AND returned_at IS NULL
	`, movieID, renterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveRental
	}
	if err != nil {
		return nil, fmt.Errorf("find active rental: %w", err)
	}
	return &r, nil
}

func (p *postgresRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnedAt time.Time) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE rentals SET returned_at = $1 WHERE id = $2 AND returned_at IS NULL
	`, returnedAt, id)
	if err != nil {
		return fmt.Errorf("mark returned: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNoActiveRental
	}
	return nil
}

func (p *postgresRepository) ListByRenter(ctx context.Context, renterID uuid.UUID, returned bool, page, size int) ([]View, error) {
	returnedExpr := goqu.I("r.returned_at").IsNull()
	if returned {
		returnedExpr = goqu.I("r.returned_at").IsNotNull()
	}

	stmt := goqu.Dialect(dialectPostgres).
		From(goqu.T("rentals").As("r")).
		Join(goqu.T("movies").As("m"), goqu.On(goqu.I("r.movie_id").Eq(goqu.I("m.id")))).
		Join(goqu.T("renters").As("u"), goqu.On(goqu.I("r.renter_id").Eq(goqu.I("u.id")))).
		Select(
			goqu.I("m.id").As("movie_id"),
			goqu.I("u.email").As("user_email"),
			goqu.I("m.title").As("movie_title"),
			goqu.I("m.genre").As("genre"),
			goqu.I("r.rented_at").As("rented_at"),
			goqu.I("r.returned_at").As("returned_at"),
		).
		Where(goqu.I("u.id").Eq(renterID.String()), returnedExpr).
		Order(goqu.I("r.rented_at").Desc(), goqu.I("r.id").Asc()).
		Limit(uint(size)).
		Offset(uint(page * size))

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build rental listing query: %w", err)
	}

	views := []View{}
	if err := p.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	return views, nil
}

func (p *postgresRepository) ActiveMovieIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := p.db.SelectContext(ctx, &ids, `
		SELECT movie_id FROM rentals WHERE returned_at IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("list active movie ids: %w", err)
	}
	return ids, nil
}
