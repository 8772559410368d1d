// internal/renter/domain.go
package renter

import (
	"time"

	"github.com/google/uuid"
)

// Renter is a registered customer. Authentication and authorization live in
// a collaborator service; this registry only holds the profile the rental
// pipeline needs, most importantly the contact email reminders are keyed on.
type Renter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
