// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/arekbednarz1/rentalStore/internal/catalog"
	"github.com/arekbednarz1/rentalStore/internal/config"
	"github.com/arekbednarz1/rentalStore/internal/inventory"
	"github.com/arekbednarz1/rentalStore/internal/reminder"
	"github.com/arekbednarz1/rentalStore/internal/rental"
	"github.com/arekbednarz1/rentalStore/internal/renter"
	"github.com/arekbednarz1/rentalStore/internal/storage"
	"github.com/arekbednarz1/rentalStore/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, "rentalstore", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialise tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	bus, err := buildBus(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build reminder bus: %v", err)
	}
	defer bus.Close()

	store := reminder.NewStore(reminder.Lead, logger)
	scheduler := reminder.NewScheduler(bus, logger)
	consumer := reminder.NewConsumer(bus, store, logger)
	go consumer.Run(ctx)
	go store.Sweep(ctx, time.Minute)

	ledger := inventory.NewLedger()
	catalogSvc := catalog.NewService(db, ledger, logger)
	renterSvc := renter.NewService(db, logger)
	rentalRepo := rental.NewRepository(db)
	rentalSvc := rental.NewService(ledger, catalogSvc, renterSvc, rentalRepo, scheduler, store, logger)

	if err := preloadLedger(ctx, ledger, catalogSvc, rentalRepo); err != nil {
		log.Fatalf("Failed to preload inventory ledger: %v", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)))

	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/movies", catalog.NewHandler(catalogSvc).Routes())
		r.Mount("/renters", renter.NewHandler(renterSvc).Routes())
		r.Mount("/rental", rental.NewHandler(rentalSvc).Routes())
		r.Get("/self/reminder", reminder.NewHandler(store).HandlePending)
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("🚀 Starting Rental Store on port %s\n", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("server stopped")
}

// buildBus picks the reminder channel implementation from configuration.
func buildBus(ctx context.Context, cfg config.Config, logger *slog.Logger) (reminder.Bus, error) {
	switch cfg.ReminderBus {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return reminder.NewRedisBus(ctx, client, cfg.ConsumerGroup, cfg.ConsumerName, logger)
	case "channel":
		return reminder.NewChannelBus(256), nil
	default:
		return nil, fmt.Errorf("unknown reminder bus %q", cfg.ReminderBus)
	}
}

// preloadLedger rebuilds the in-memory availability state from the catalog,
// then re-marks movies with an outstanding rental as claimed so the ledger
// agrees with the rentals table after a restart.
func preloadLedger(ctx context.Context, ledger *inventory.Ledger, cat catalog.Service, repo rental.Repository) error {
	movies, err := cat.ListMovies(ctx)
	if err != nil {
		return fmt.Errorf("list movies: %w", err)
	}
	for _, m := range movies {
		ledger.Register(m.ID, m.Available)
	}

	active, err := repo.ActiveMovieIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active rentals: %w", err)
	}
	for _, id := range active {
		ledger.Register(id, false)
	}
	return nil
}

// rateLimit sheds load across the whole router once the shared token bucket
// runs dry.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
