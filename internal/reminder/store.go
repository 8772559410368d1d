// internal/reminder/store.go
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds pending reminders keyed by rental id, each with its own expiry
// instant derived from the rental's due date. Entries expire at
// dueDate−lead; when that instant has already passed at insertion (the usual
// case, since records are published at dueDate−lead or later) the entry
// stays visible until the rental itself is due.
//
// Expired entries are never returned by ListAll, even before they are
// physically purged. There is no size bound: the store can hold at most one
// entry per outstanding rental.
type Store struct {
	lead time.Duration
	now  func() time.Time
	log  *slog.Logger

	mu      sync.RWMutex
	entries map[uuid.UUID]pendingEntry
}

type pendingEntry struct {
	rec       Record
	expiresAt time.Time
}

func NewStore(lead time.Duration, log *slog.Logger) *Store {
	return &Store{
		lead:    lead,
		now:     time.Now,
		log:     log,
		entries: make(map[uuid.UUID]pendingEntry),
	}
}

// Add inserts or overwrites the entry for the record's rental. The expiry
// instant is computed once here and not re-derived later.
func (s *Store) Add(rec Record) {
	now := s.now()
	expiresAt := rec.DueDate.Add(-s.lead)
	if !expiresAt.After(now) {
		expiresAt = rec.DueDate
	}

	s.mu.Lock()
	s.entries[rec.RentalID] = pendingEntry{rec: rec, expiresAt: expiresAt}
	s.mu.Unlock()

	s.log.Info("added reminder", "rental_id", rec.RentalID, "expires_at", expiresAt)
}

// Remove deletes the entry for the rental if present. A missing key is not
// an error; returns report whether an entry was dropped.
func (s *Store) Remove(rentalID uuid.UUID) bool {
	s.mu.Lock()
	_, ok := s.entries[rentalID]
	delete(s.entries, rentalID)
	s.mu.Unlock()

	if ok {
		s.log.Info("removed reminder", "rental_id", rentalID)
	}
	return ok
}

// ListAll returns every non-expired record and opportunistically purges the
// expired ones it walks over. Order is unspecified.
func (s *Store) ListAll() []Record {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.entries))
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			continue
		}
		records = append(records, e.rec)
	}
	return records
}

// Len reports the number of physically held entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep runs a periodic purge of expired entries until the context is
// cancelled. Eviction is lazy in ListAll regardless; the sweeper just keeps
// the map from accumulating dead entries between reads.
func (s *Store) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}

func (s *Store) purgeExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
