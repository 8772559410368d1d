// internal/rental/domain.go
package rental

import (
	"time"

	"github.com/google/uuid"
)

// Rental records one lending of a movie to a renter. ReturnedAt stays nil
// while the rental is outstanding; for any movie at most one such record may
// exist at a time. Records are never deleted once the rental took effect —
// only rolled back while a rent operation is still in flight.
type Rental struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	MovieID    uuid.UUID  `json:"movie_id" db:"movie_id"`
	RenterID   uuid.UUID  `json:"renter_id" db:"renter_id"`
	RentedAt   time.Time  `json:"rented_at" db:"rented_at"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty" db:"returned_at"`
}

// View is the rental projection returned by paged listings.
type View struct {
	MovieID    uuid.UUID  `json:"movie_id" db:"movie_id"`
	UserEmail  string     `json:"user_email" db:"user_email"`
	MovieTitle string     `json:"movie_title" db:"movie_title"`
	Genre      string     `json:"genre" db:"genre"`
	RentedAt   time.Time  `json:"rented_at" db:"rented_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty" db:"returned_at"`
}
