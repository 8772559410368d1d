// internal/inventory/ledger.go
package inventory

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("inventory: item not found")
	ErrUnavailable = errors.New("inventory: item unavailable")
)

// Ledger tracks the availability of rentable items and guarantees that at
// most one claim is held per item at any time. Each item carries its own
// lock, so claims for different items never serialize against each other.
type Ledger struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*itemCell
}

type itemCell struct {
	mu        sync.Mutex
	available bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{items: make(map[uuid.UUID]*itemCell)}
}

// Register adds an item to the ledger with the given availability. Calling
// Register again for a known item resets its state; callers do this only
// when reloading the ledger from the catalog.
func (l *Ledger) Register(itemID uuid.UUID, available bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[itemID] = &itemCell{available: available}
}

// Deregister removes an item from the ledger, e.g. when a movie is deleted
// from the catalog.
func (l *Ledger) Deregister(itemID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, itemID)
}

// TryClaim atomically flips the item to unavailable. It fails with
// ErrUnavailable when another claim is already held and with ErrNotFound for
// unknown items. Two concurrent claims for the same item can never both
// succeed.
func (l *Ledger) TryClaim(itemID uuid.UUID) error {
	cell, err := l.lookup(itemID)
	if err != nil {
		return err
	}

	cell.mu.Lock()
	defer cell.mu.Unlock()

	if !cell.available {
		return ErrUnavailable
	}
	cell.available = false
	return nil
}

// Release flips the item back to available. Releasing an already-available
// item is a caller error but leaves the ledger in a consistent state.
func (l *Ledger) Release(itemID uuid.UUID) error {
	cell, err := l.lookup(itemID)
	if err != nil {
		return err
	}

	cell.mu.Lock()
	defer cell.mu.Unlock()

	cell.available = true
	return nil
}

// IsAvailable reports whether the item can currently be claimed.
func (l *Ledger) IsAvailable(itemID uuid.UUID) (bool, error) {
	cell, err := l.lookup(itemID)
	if err != nil {
		return false, err
	}

	cell.mu.Lock()
	defer cell.mu.Unlock()

	return cell.available, nil
}

func (l *Ledger) lookup(itemID uuid.UUID) (*itemCell, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cell, ok := l.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	return cell, nil
}
