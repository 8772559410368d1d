// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Genre classifies a movie.
type Genre string

const (
	GenreAction   Genre = "ACTION"
	GenreComedy   Genre = "COMEDY"
	GenreDrama    Genre = "DRAMA"
	GenreHorror   Genre = "HORROR"
	GenreSciFi    Genre = "SCIFI"
	GenreThriller Genre = "THRILLER"
)

// Movie is a rentable catalog item. The available flag is mutated only
// through rental-coordinated transitions, never directly by API callers.
type Movie struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Genre     Genre     `json:"genre" db:"genre"`
	Available bool      `json:"available" db:"available"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
