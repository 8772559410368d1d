// internal/renter/service.go
package renter

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the renter registry.
type Service interface {
	Register(ctx context.Context, email, name string) (*Renter, error)
	Get(ctx context.Context, id uuid.UUID) (*Renter, error)
	GetByEmail(ctx context.Context, email string) (*Renter, error)
	List(ctx context.Context) ([]Renter, error)
}
