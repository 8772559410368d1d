// internal/reminder/scheduler.go
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Lead is how far ahead of the due date a reminder fires.
const Lead = 24 * time.Hour

const (
	publishAttempts = 3
	publishBackoff  = 500 * time.Millisecond
)

// Scheduler arms one-shot reminders tied to rental due dates. Each Arm call
// owns an independent timer; there is no cancel operation — a reminder made
// irrelevant by an early return is dropped downstream by the store, not
// here. A stale publish after an early return is accepted as benign.
type Scheduler struct {
	bus    Bus
	lead   time.Duration
	now    func() time.Time
	after  func(d time.Duration, f func()) *time.Timer
	log    *slog.Logger
	tracer trace.Tracer
}

func NewScheduler(bus Bus, log *slog.Logger) *Scheduler {
	return &Scheduler{
		bus:    bus,
		lead:   Lead,
		now:    time.Now,
		after:  time.AfterFunc,
		log:    log,
		tracer: otel.Tracer("rentalstore/reminder"),
	}
}

// Arm schedules a reminder for the rental. When the fire time has already
// passed — the rental is due within the lead window or overdue — the record
// is published synchronously before Arm returns, so a reminder is never
// silently dropped. Publish failures are retried with backoff a bounded
// number of times and then logged and suppressed; reminders are best-effort
// and never fail the rental.
func (s *Scheduler) Arm(ctx context.Context, rentalID uuid.UUID, userEmail, movieTitle string, dueDate time.Time) {
	ctx, span := s.tracer.Start(ctx, "reminder.arm",
		trace.WithAttributes(
			attribute.String("rental.id", rentalID.String()),
			attribute.String("due.date", dueDate.Format(time.RFC3339)),
		),
	)
	defer span.End()

	rec := Record{
		RentalID:   rentalID,
		UserEmail:  userEmail,
		MovieTitle: movieTitle,
		DueDate:    dueDate,
	}

	now := s.now()
	fireAt := dueDate.Add(-s.lead)

	if !now.Before(fireAt) {
		span.SetAttributes(attribute.Bool("fired.immediately", true))
		s.log.Info("reminder window already elapsed, publishing immediately", "rental_id", rentalID)
		s.publish(ctx, rec)
		return
	}

	delay := fireAt.Sub(now)
	span.SetAttributes(attribute.Int64("delay.ms", delay.Milliseconds()))
	s.log.Info("scheduling reminder", "rental_id", rentalID, "fire_at", fireAt)

	s.after(delay, func() {
		s.publish(context.Background(), rec)
	})
}

func (s *Scheduler) publish(ctx context.Context, rec Record) {
	backoff := publishBackoff
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = s.bus.Publish(ctx, rec); err == nil {
			return
		}
		if attempt < publishAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	s.log.Warn("dropping reminder after failed publish attempts",
		"rental_id", rec.RentalID, "attempts", publishAttempts, "error", err)
}
