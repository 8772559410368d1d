// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("catalog: movie not found")

// Registry mirrors catalog membership into the inventory ledger so that new
// movies become claimable and deleted ones stop being claimable.
type Registry interface {
	Register(itemID uuid.UUID, available bool)
	Deregister(itemID uuid.UUID)
}

// service implements the Service interface on top of PostgreSQL.
type service struct {
	db       *sqlx.DB
	registry Registry
	log      *slog.Logger
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, registry Registry, log *slog.Logger) Service {
	return &service{db: db, registry: registry, log: log}
}

// AddMovie creates a new movie, available for rent.
func (s *service) AddMovie(ctx context.Context, title string, genre Genre) (*Movie, error) {
	now := time.Now().UTC()
	movie := &Movie{
		ID:        uuid.New(),
		Title:     title,
		Genre:     genre,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO movies (id, title, genre, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, movie.ID, movie.Title, movie.Genre, movie.Available, movie.CreatedAt, movie.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}

	s.registry.Register(movie.ID, true)
	s.log.Info("added movie", "movie_id", movie.ID, "title", movie.Title)
	return movie, nil
}

// GetMovie retrieves a movie by its ID.
func (s *service) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	var movie Movie
	err := s.db.GetContext(ctx, &movie, `
		SELECT id, title, genre, available, created_at, updated_at
		FROM movies
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return &movie, nil
}

// ListMovies returns the full catalog.
func (s *service) ListMovies(ctx context.Context) ([]Movie, error) {
	movies := []Movie{}
	err := s.db.SelectContext(ctx, &movies, `
		SELECT id, title, genre, available, created_at, updated_at
		FROM movies
		ORDER BY title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

// UpdateMovie changes a movie's title and genre.
func (s *service) UpdateMovie(ctx context.Context, id uuid.UUID, title string, genre Genre) (*Movie, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE movies
		SET title = $1, genre = $2, updated_at = $3
		WHERE id = $4
	`, title, genre, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetMovie(ctx, id)
}

// SetAvailability writes through the availability flag. Only the rental
// coordinator calls this, as part of a claim or release transition.
func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE movies
		SET available = $1, updated_at = $2
		WHERE id = $3
	`, available, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMovie deletes a movie from the catalog.
func (s *service) RemoveMovie(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.registry.Deregister(id)
	s.log.Info("deleted movie", "movie_id", id)
	return nil
}
