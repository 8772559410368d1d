// internal/rental/implementation.go
package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arekbednarz1/rentalStore/internal/catalog"
	"github.com/arekbednarz1/rentalStore/internal/inventory"
	"github.com/arekbednarz1/rentalStore/internal/renter"
)

// Ledger is the inventory side of the coordinator: per-movie claim/release
// with linearizable claims.
type Ledger interface {
	TryClaim(itemID uuid.UUID) error
	Release(itemID uuid.UUID) error
}

// Catalog is what the coordinator needs from the movie catalog: title
// lookups and the availability write-through.
type Catalog interface {
	GetMovie(ctx context.Context, id uuid.UUID) (*catalog.Movie, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

// Renters resolves the contact email embedded in reminder records.
type Renters interface {
	Get(ctx context.Context, id uuid.UUID) (*renter.Renter, error)
}

// ReminderScheduler arms the one-shot due-date reminder for a new rental.
type ReminderScheduler interface {
	Arm(ctx context.Context, rentalID uuid.UUID, userEmail, movieTitle string, dueDate time.Time)
}

// ReminderStore drops the pending reminder when a rental is returned early.
type ReminderStore interface {
	Remove(rentalID uuid.UUID) bool
}

// service implements the Service interface.
type service struct {
	ledger    Ledger
	catalog   Catalog
	renters   Renters
	repo      Repository
	scheduler ReminderScheduler
	reminders ReminderStore
	now       func() time.Time
	log       *slog.Logger
	tracer    trace.Tracer
}

// NewService creates a new rental coordinator.
func NewService(
	ledger Ledger,
	cat Catalog,
	renters Renters,
	repo Repository,
	scheduler ReminderScheduler,
	reminders ReminderStore,
	log *slog.Logger,
) Service {
	return &service{
		ledger:    ledger,
		catalog:   cat,
		renters:   renters,
		repo:      repo,
		scheduler: scheduler,
		reminders: reminders,
		now:       time.Now,
		log:       log,
		tracer:    otel.Tracer("rentalstore/rental"),
	}
}

// Rent claims the movie, persists the rental record and arms the reminder,
// rolling the claim back if persistence fails so that a failed rent leaves
// no trace.
func (s *service) Rent(ctx context.Context, movieID, renterID uuid.UUID, dueDate time.Time) (*Rental, error) {
	ctx, span := s.tracer.Start(ctx, "rental.rent",
		trace.WithAttributes(
			attribute.String("movie.id", movieID.String()),
			attribute.String("renter.id", renterID.String()),
		),
	)
	defer span.End()

	s.log.Info("renting movie", "movie_id", movieID, "renter_id", renterID)

	movie, err := s.catalog.GetMovie(ctx, movieID)
	if err != nil {
		return nil, s.mapCatalogErr(err)
	}
	rt, err := s.renters.Get(ctx, renterID)
	if err != nil {
		return nil, fmt.Errorf("resolve renter: %w", err)
	}

	// Step 1: claim the item. Linearizable per movie; the losing racer gets
	// ErrMovieUnavailable here.
	if err := s.ledger.TryClaim(movieID); err != nil {
		span.SetAttributes(attribute.Bool("claim.rejected", true))
		return nil, s.mapLedgerErr(err)
	}

	// Step 2: persist the rental record; compensate the claim on failure.
	record := &Rental{
		ID:       uuid.New(),
		MovieID:  movieID,
		RenterID: renterID,
		RentedAt: s.now().UTC(),
		DueDate:  dueDate,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.releaseClaim(movieID)
		return nil, fmt.Errorf("persist rental: %w", err)
	}

	if err := s.catalog.SetAvailability(ctx, movieID, false); err != nil {
		s.log.Error("availability write-through failed, rolling back rental",
			"movie_id", movieID, "error", err)
		if delErr := s.repo.Delete(ctx, record.ID); delErr != nil {
			s.log.Error("rollback of rental record failed", "rental_id", record.ID, "error", delErr)
		}
		s.releaseClaim(movieID)
		return nil, fmt.Errorf("persist availability: %w", err)
	}

	// Step 3: arm the reminder. Best-effort; failures are logged inside the
	// scheduler and never fail the rental.
	s.scheduler.Arm(ctx, record.ID, rt.Email, movie.Title, dueDate)

	return record, nil
}

// Return closes the renter's active rental for the movie, frees the item and
// drops the pending reminder.
func (s *service) Return(ctx context.Context, movieID, renterID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "rental.return",
		trace.WithAttributes(
			attribute.String("movie.id", movieID.String()),
			attribute.String("renter.id", renterID.String()),
		),
	)
	defer span.End()

	s.log.Info("returning movie", "movie_id", movieID, "renter_id", renterID)

	active, err := s.repo.FindActive(ctx, movieID, renterID)
	if err != nil {
		return err
	}

	if err := s.repo.MarkReturned(ctx, active.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("persist return: %w", err)
	}

	s.releaseClaim(movieID)

	if err := s.catalog.SetAvailability(ctx, movieID, true); err != nil {
		return fmt.Errorf("persist availability: %w", err)
	}

	// Absence is fine: the reminder may never have fired or already expired.
	s.reminders.Remove(active.ID)

	return nil
}

// ListRentals is a pure read over the rental projections.
func (s *service) ListRentals(ctx context.Context, renterID uuid.UUID, returned bool, page, size int) ([]View, error) {
	if page < 0 || size <= 0 {
		return nil, ErrInvalidPage
	}
	return s.repo.ListByRenter(ctx, renterID, returned, page, size)
}

func (s *service) releaseClaim(movieID uuid.UUID) {
	if err := s.ledger.Release(movieID); err != nil {
		s.log.Error("claim release failed", "movie_id", movieID, "error", err)
	}
}

func (s *service) mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return ErrMovieNotFound
	case errors.Is(err, inventory.ErrUnavailable):
		return ErrMovieUnavailable
	default:
		return err
	}
}

func (s *service) mapCatalogErr(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}
