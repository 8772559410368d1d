// internal/reminder/record.go
package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Record is the reminder message carried from the scheduler to the pending
// store. It is a value type, immutable once constructed, and never persisted
// durably; losing pending reminders on restart is accepted.
type Record struct {
	RentalID   uuid.UUID `json:"rental_id"`
	UserEmail  string    `json:"user_email"`
	MovieTitle string    `json:"movie_title"`
	DueDate    time.Time `json:"due_date"`
}
