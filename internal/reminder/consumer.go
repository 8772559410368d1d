// internal/reminder/consumer.go
package reminder

import (
	"context"
	"log/slog"
)

// Consumer drains the bus into the pending store. Add is an idempotent
// upsert, so redelivered records simply overwrite their previous entry.
type Consumer struct {
	bus   Bus
	store *Store
	log   *slog.Logger
}

func NewConsumer(bus Bus, store *Store, log *slog.Logger) *Consumer {
	return &Consumer{bus: bus, store: store, log: log}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info("reminder consumer started", "topic", Topic)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("reminder consumer stopped")
			return
		case rec, ok := <-c.bus.Messages():
			if !ok {
				c.log.Info("reminder bus closed, consumer stopping")
				return
			}
			c.store.Add(rec)
		}
	}
}
