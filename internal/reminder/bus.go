// internal/reminder/bus.go
package reminder

import (
	"context"
	"errors"
	"sync"
)

// Topic is the logical channel name reminder records travel on.
const Topic = "rental-reminders"

var ErrBusClosed = errors.New("reminder: bus closed")

// Bus decouples the scheduling producer from the store-populating consumer.
// Delivery is at-least-once: after a crash-and-redeliver sequence the same
// record may arrive more than once, so consumers must treat Add as an
// idempotent upsert.
type Bus interface {
	// Publish enqueues a record. It returns once the record is accepted by
	// the channel, not once a consumer has processed it.
	Publish(ctx context.Context, rec Record) error
	// Messages exposes the consumer side of the channel.
	Messages() <-chan Record
	Close() error
}

// ChannelBus is the in-process Bus used by the single-binary deployment. A
// buffered Go channel stands in for the broker topic. Timer callbacks
// publish concurrently, so the record channel is never closed; consumers
// stop via their own context instead.
type ChannelBus struct {
	ch        chan Record
	done      chan struct{}
	closeOnce sync.Once
}

func NewChannelBus(size int) *ChannelBus {
	return &ChannelBus{
		ch:   make(chan Record, size),
		done: make(chan struct{}),
	}
}

func (b *ChannelBus) Publish(ctx context.Context, rec Record) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.ch <- rec:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *ChannelBus) Messages() <-chan Record {
	return b.ch
}

func (b *ChannelBus) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}
