// internal/rental/service.go
package rental

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMovieNotFound    = errors.New("rental: movie not found")
	ErrMovieUnavailable = errors.New("rental: movie unavailable")
	ErrNoActiveRental   = errors.New("rental: no active rental")
	ErrInvalidPage      = errors.New("rental: page must not be negative and size must be positive")
)

// Service coordinates inventory claims, rental persistence and the reminder
// pipeline.
type Service interface {
	// Rent claims the movie, persists the rental and arms a due-date
	// reminder. Reminder arming is best-effort and never fails the rental.
	Rent(ctx context.Context, movieID, renterID uuid.UUID, dueDate time.Time) (*Rental, error)
	// Return closes the renter's active rental for the movie and drops its
	// pending reminder.
	Return(ctx context.Context, movieID, renterID uuid.UUID) error
	// ListRentals returns a page of rental projections for the renter,
	// filtered by returned status, ordered by rental date descending.
	ListRentals(ctx context.Context, renterID uuid.UUID, returned bool, page, size int) ([]View, error)
}
