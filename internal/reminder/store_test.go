package reminder

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestStore(now time.Time) (*Store, *time.Time) {
	clock := now
	s := NewStore(Lead, testLogger())
	s.now = func() time.Time { return clock }
	return s, &clock
}

func record(due time.Time) Record {
	return Record{
		RentalID:   uuid.New(),
		UserEmail:  "renter@example.com",
		MovieTitle: "Heat",
		DueDate:    due,
	}
}

func TestStoreAddAndListAll(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(now)

	rec := record(now.Add(48 * time.Hour))
	store.Add(rec)

	all := store.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, rec, all[0])
}

func TestStoreAddIsIdempotentUpsert(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(now)

	rec := record(now.Add(48 * time.Hour))
	store.Add(rec)
	store.Add(rec)

	updated := rec
	updated.MovieTitle = "Heat (Director's Cut)"
	store.Add(updated)

	all := store.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, "Heat (Director's Cut)", all[0].MovieTitle)
}

func TestStoreRemove(t *testing.T) {
	now := time.Now()
	store, _ := newTestStore(now)

	rec := record(now.Add(48 * time.Hour))
	store.Add(rec)

	assert.True(t, store.Remove(rec.RentalID))
	assert.Empty(t, store.ListAll())

	// Absent key is not an error.
	assert.False(t, store.Remove(rec.RentalID))
	assert.False(t, store.Remove(uuid.New()))
}

// A record whose due date is beyond the lead window expires at dueDate−lead.
func TestStoreEntryExpiresAtLeadBeforeDueDate(t *testing.T) {
	now := time.Now()
	store, clock := newTestStore(now)

	rec := record(now.Add(48 * time.Hour))
	store.Add(rec)

	*clock = now.Add(24*time.Hour - time.Minute)
	require.Len(t, store.ListAll(), 1)

	*clock = now.Add(24 * time.Hour)
	assert.Empty(t, store.ListAll())
}

// A record already inside the lead window at insertion (the usual case,
// since publication happens at dueDate−lead or later) stays listed until the
// rental is due.
func TestStoreEntryInsideLeadWindowVisibleUntilDue(t *testing.T) {
	now := time.Now()
	store, clock := newTestStore(now)

	rec := record(now.Add(12 * time.Hour))
	store.Add(rec)

	require.Len(t, store.ListAll(), 1)

	*clock = now.Add(12*time.Hour - time.Minute)
	require.Len(t, store.ListAll(), 1)

	*clock = now.Add(12 * time.Hour)
	assert.Empty(t, store.ListAll())
}

func TestStoreListAllPurgesExpiredEntries(t *testing.T) {
	now := time.Now()
	store, clock := newTestStore(now)

	store.Add(record(now.Add(12 * time.Hour)))
	store.Add(record(now.Add(72 * time.Hour)))
	require.Equal(t, 2, store.Len())

	*clock = now.Add(13 * time.Hour)
	require.Len(t, store.ListAll(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestStorePurgeExpired(t *testing.T) {
	now := time.Now()
	store, clock := newTestStore(now)

	store.Add(record(now.Add(12 * time.Hour)))
	store.Add(record(now.Add(72 * time.Hour)))

	*clock = now.Add(13 * time.Hour)
	store.purgeExpired()
	assert.Equal(t, 1, store.Len())
}
