// internal/reminder/redis_bus.go
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const recordField = "record"

// RedisBus carries reminder records over a Redis Stream, giving the pipeline
// at-least-once delivery across processes. Entries are acknowledged after
// they have been handed to the consumer channel, so a crash in between leads
// to redelivery rather than loss.
type RedisBus struct {
	client   *redis.Client
	group    string
	consumer string
	log      *slog.Logger

	ch        chan Record
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRedisBus creates the consumer group (if missing) and starts the reader
// loop feeding Messages.
func NewRedisBus(ctx context.Context, client *redis.Client, group, consumer string, log *slog.Logger) (*RedisBus, error) {
	err := client.XGroupCreateMkStream(ctx, Topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &RedisBus{
		client:   client,
		group:    group,
		consumer: consumer,
		log:      log,
		ch:       make(chan Record, 64),
		cancel:   cancel,
	}

	b.wg.Add(1)
	go b.readLoop(runCtx)

	return b, nil
}

func (b *RedisBus) Publish(ctx context.Context, rec Record) error {
	payload, err := jsonCodec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: Topic,
		Values: map[string]interface{}{recordField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (b *RedisBus) Messages() <-chan Record {
	return b.ch
}

func (b *RedisBus) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
	})
	return nil
}

func (b *RedisBus) readLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{Topic, ">"},
			Count:    16,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			b.log.Warn("reminder stream read failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				b.deliver(ctx, msg)
			}
		}
	}
}

func (b *RedisBus) deliver(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values[recordField].(string)
	if !ok {
		// Malformed entry; ack so it does not wedge the group.
		b.log.Warn("dropping malformed reminder entry", "stream_id", msg.ID)
		b.ack(msg.ID)
		return
	}

	var rec Record
	if err := jsonCodec.Unmarshal([]byte(raw), &rec); err != nil {
		b.log.Warn("dropping undecodable reminder entry", "stream_id", msg.ID, "error", err)
		b.ack(msg.ID)
		return
	}

	select {
	case b.ch <- rec:
		b.ack(msg.ID)
	case <-ctx.Done():
	}
}

func (b *RedisBus) ack(id string) {
	if err := b.client.XAck(context.Background(), Topic, b.group, id).Err(); err != nil {
		b.log.Warn("xack failed", "stream_id", id, "error", err)
	}
}
