// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the movie catalog.
type Service interface {
	AddMovie(ctx context.Context, title string, genre Genre) (*Movie, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	ListMovies(ctx context.Context) ([]Movie, error)
	UpdateMovie(ctx context.Context, id uuid.UUID, title string, genre Genre) (*Movie, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	RemoveMovie(ctx context.Context, id uuid.UUID) error
}
