// internal/renter/implementation.go
package renter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("renter: not found")
	ErrEmailTaken     = errors.New("renter: email already registered")
	uniqueViolationPq = pq.ErrorCode("23505")
)

type service struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewService creates a new renter registry backed by PostgreSQL.
func NewService(db *sqlx.DB, log *slog.Logger) Service {
	return &service{db: db, log: log}
}

func (s *service) Register(ctx context.Context, email, name string) (*Renter, error) {
	r := &Renter{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renters (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.ID, r.Email, r.Name, r.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationPq {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert renter: %w", err)
	}

	s.log.Info("registered renter", "renter_id", r.ID)
	return r, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Renter, error) {
	var r Renter
	err := s.db.GetContext(ctx, &r, `
		SELECT id, email, name, created_at FROM renters WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get renter: %w", err)
	}
	return &r, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*Renter, error) {
	var r Renter
	err := s.db.GetContext(ctx, &r, `
		SELECT id, email, name, created_at FROM renters WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get renter by email: %w", err)
	}
	return &r, nil
}

func (s *service) List(ctx context.Context) ([]Renter, error) {
	renters := []Renter{}
	err := s.db.SelectContext(ctx, &renters, `
		SELECT id, email, name, created_at FROM renters ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list renters: %w", err)
	}
	return renters, nil
}
