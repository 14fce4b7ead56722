package instance

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// EventBus publishes harness lifecycle events (session entered, task
// invoked, session left) to a Pulse stream backed by Redis, for deployments
// that want to observe instance activity out of band from the task protocol
// itself. It is optional: a Harness with no EventBus configured skips
// publishing entirely, matching this repo's non-goal of a built-in metrics
// pipeline (§1) while still letting operators wire one in.
type EventBus struct {
	redis  *redis.Client
	stream *streaming.Stream
}

// NewEventBus dials addr and opens (creating if needed) the named Pulse
// stream events will be published to.
func NewEventBus(addr, streamName string) (*EventBus, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	str, err := streaming.NewStream(streamName, rdb, streamopts.WithStreamMaxLen(10_000))
	if err != nil {
		return nil, fmt.Errorf("open event bus stream %s: %w", streamName, err)
	}
	return &EventBus{redis: rdb, stream: str}, nil
}

// Publish appends one lifecycle event. Failures are not fatal to the caller;
// callers should log and continue rather than fail a task invocation because
// the event bus is unavailable.
func (b *EventBus) Publish(ctx context.Context, event string, payload []byte) error {
	_, err := b.stream.Add(ctx, event, payload)
	return err
}

// Close releases the underlying Redis connection.
func (b *EventBus) Close() error {
	return b.redis.Close()
}
