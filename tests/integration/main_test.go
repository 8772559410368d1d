// tests/integration/main_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arekbednarz1/rentalStore/internal/catalog"
	"github.com/arekbednarz1/rentalStore/internal/inventory"
	"github.com/arekbednarz1/rentalStore/internal/reminder"
	"github.com/arekbednarz1/rentalStore/internal/rental"
	"github.com/arekbednarz1/rentalStore/internal/renter"
	"github.com/arekbednarz1/rentalStore/internal/storage"
)

// TestSuite runs the whole service in-process against a real Postgres: the
// same wiring as cmd/server, minus the listener.
type TestSuite struct {
	db     *sqlx.DB
	server *httptest.Server
	store  *reminder.Store
}

func setupTestSuite(t *testing.T) *TestSuite {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("PGUSER", "user"), envOr("PGPASSWORD", "password"),
		envOr("PGHOST", "localhost"), envOr("PGPORT", "5432"),
		envOr("PGDATABASE", "testdb"))

	db, err := sqlx.Open("postgres", dsn)
	if err != nil || db.Ping() != nil {
		t.Skipf("postgres unavailable at %s", dsn)
	}

	ctx := context.Background()
	require.NoError(t, storage.EnsureSchema(ctx, db))
	_, err = db.Exec("TRUNCATE TABLE rentals, movies, renters CASCADE")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	bus := reminder.NewChannelBus(64)
	store := reminder.NewStore(reminder.Lead, logger)
	scheduler := reminder.NewScheduler(bus, logger)
	consumer := reminder.NewConsumer(bus, store, logger)

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	go consumer.Run(consumerCtx)

	ledger := inventory.NewLedger()
	catalogSvc := catalog.NewService(db, ledger, logger)
	renterSvc := renter.NewService(db, logger)
	rentalRepo := rental.NewRepository(db)
	rentalSvc := rental.NewService(ledger, catalogSvc, renterSvc, rentalRepo, scheduler, store, logger)

	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/movies", catalog.NewHandler(catalogSvc).Routes())
		r.Mount("/renters", renter.NewHandler(renterSvc).Routes())
		r.Mount("/rental", rental.NewHandler(rentalSvc).Routes())
		r.Get("/self/reminder", reminder.NewHandler(store).HandlePending)
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancelConsumer()
		bus.Close()
		db.Close()
	})

	return &TestSuite{db: db, server: server, store: store}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (ts *TestSuite) registerRenter(t *testing.T, email, name string) *renter.Renter {
	t.Helper()
	rt := &renter.Renter{}
	body, _ := json.Marshal(map[string]string{"email": email, "name": name})
	resp, err := http.Post(ts.server.URL+"/api/v1/renters/", "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(rt))
	return rt
}

func (ts *TestSuite) addMovie(t *testing.T, title string) *catalog.Movie {
	t.Helper()
	movie := &catalog.Movie{}
	body, _ := json.Marshal(map[string]string{"title": title, "genre": "DRAMA"})
	resp, err := http.Post(ts.server.URL+"/api/v1/movies/", "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(movie))
	return movie
}

func (ts *TestSuite) rent(t *testing.T, movieID, renterID uuid.UUID, period string) *http.Response {
	t.Helper()
	url := fmt.Sprintf("%s/api/v1/rental/%s/rent?dueDate=%s", ts.server.URL, movieID, period)
	req, err := http.NewRequest(http.MethodPut, url, nil)
	require.NoError(t, err)
	req.Header.Set("X-Renter-ID", renterID.String())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestSuite) returnMovie(t *testing.T, movieID, renterID uuid.UUID) *http.Response {
	t.Helper()
	url := fmt.Sprintf("%s/api/v1/rental/%s/return", ts.server.URL, movieID)
	req, err := http.NewRequest(http.MethodPut, url, nil)
	require.NoError(t, err)
	req.Header.Set("X-Renter-ID", renterID.String())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestSuite) getMovie(t *testing.T, id uuid.UUID) *catalog.Movie {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/movies/%s", ts.server.URL, id))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	movie := &catalog.Movie{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(movie))
	return movie
}

func (ts *TestSuite) pendingReminders(t *testing.T, email string) []reminder.Record {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/self/reminder?email=%s", ts.server.URL, email))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []reminder.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func TestRentalFlow(t *testing.T) {
	ts := setupTestSuite(t)

	rt := ts.registerRenter(t, "flow@example.com", "Flow Tester")
	movie := ts.addMovie(t, "The Seventh Seal")

	// Rent for one day. The due date is inside the reminder lead window, so
	// the reminder is published immediately and must surface in the pending
	// listing as soon as the consumer drains it.
	resp := ts.rent(t, movie.ID, rt.ID, "ONE_DAY")
	record := &rental.Rental{}
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(record))
	resp.Body.Close()

	assert.False(t, ts.getMovie(t, movie.ID).Available)

	require.Eventually(t, func() bool {
		return len(ts.pendingReminders(t, rt.Email)) == 1
	}, 2*time.Second, 20*time.Millisecond)
	reminders := ts.pendingReminders(t, rt.Email)
	assert.Equal(t, movie.Title, reminders[0].MovieTitle)
	assert.Equal(t, record.ID, reminders[0].RentalID)

	// The active rental shows up in the renter's listing.
	listURL := fmt.Sprintf("%s/api/v1/rental/user/%s/rentals?returned=false", ts.server.URL, rt.ID)
	listResp, err := http.Get(listURL)
	require.NoError(t, err)
	var views []rental.View
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&views))
	listResp.Body.Close()
	require.Len(t, views, 1)
	assert.Equal(t, movie.Title, views[0].MovieTitle)

	// Return: the movie frees up and the pending reminder disappears.
	returnResp := ts.returnMovie(t, movie.ID, rt.ID)
	returnResp.Body.Close()
	require.Equal(t, http.StatusNoContent, returnResp.StatusCode)

	assert.True(t, ts.getMovie(t, movie.ID).Available)
	assert.Empty(t, ts.pendingReminders(t, rt.Email))

	listResp, err = http.Get(fmt.Sprintf("%s/api/v1/rental/user/%s/rentals?returned=true", ts.server.URL, rt.ID))
	require.NoError(t, err)
	views = nil
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&views))
	listResp.Body.Close()
	require.Len(t, views, 1)
	assert.NotNil(t, views[0].ReturnedAt)
}

func TestWeekLongRentalKeepsReminderQuiet(t *testing.T) {
	ts := setupTestSuite(t)

	rt := ts.registerRenter(t, "patient@example.com", "Patient Tester")
	movie := ts.addMovie(t, "Stalker")

	resp := ts.rent(t, movie.ID, rt.ID, "ONE_WEEK")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The fire time is six days out, so nothing reaches the pending store.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, ts.pendingReminders(t, rt.Email))
}

func TestConcurrentRentPreventsDoubleBooking(t *testing.T) {
	ts := setupTestSuite(t)

	movie := ts.addMovie(t, "The Great Gatsby")

	var renters []*renter.Renter
	for i := 0; i < 10; i++ {
		renters = append(renters, ts.registerRenter(t, fmt.Sprintf("renter%d@test.com", i), fmt.Sprintf("Renter %d", i)))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	conflictCount := 0

	for _, rt := range renters {
		wg.Add(1)
		go func(r *renter.Renter) {
			defer wg.Done()
			resp := ts.rent(t, movie.ID, r.ID, "ONE_WEEK")
			defer resp.Body.Close()
			mu.Lock()
			defer mu.Unlock()
			switch resp.StatusCode {
			case http.StatusCreated:
				successCount++
			case http.StatusConflict:
				conflictCount++
			}
		}(rt)
	}
	wg.Wait()

	assert.Equal(t, 1, successCount, "only one concurrent rent should succeed")
	assert.Equal(t, 9, conflictCount)
	assert.False(t, ts.getMovie(t, movie.ID).Available)
}

func TestRentUnknownMovieReturnsNotFound(t *testing.T) {
	ts := setupTestSuite(t)

	rt := ts.registerRenter(t, "lost@example.com", "Lost Tester")
	resp := ts.rent(t, uuid.New(), rt.ID, "ONE_DAY")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
