// Package channel provides an in-memory Go channel sink for logtap.
// This sink is useful for testing and local development.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "channel"

// DefaultBuffer is the events channel capacity used by Build.
const DefaultBuffer = 64

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.ChannelCapabilities)
}

// Build creates a new channel sink with the default buffer.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	return New(DefaultBuffer), nil
}

// Channel delivers events into a buffered Go channel read via Events.
type Channel struct {
	events chan event.Event
}

// New creates a channel sink with the given buffer capacity.
func New(buffer int) *Channel {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Channel{events: make(chan event.Event, buffer)}
}

// Handle delivers the event into the channel, honouring ctx.
func (c *Channel) Handle(ctx context.Context, ev event.Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side of the sink.
func (c *Channel) Events() <-chan event.Event {
	return c.events
}

// Close closes the sink. The events channel stays readable so consumers can
// drain what was delivered.
func (c *Channel) Close() error {
	return nil
}

// Capabilities returns the capabilities of this sink.
func (c *Channel) Capabilities() sink.Capabilities {
	return sink.ChannelCapabilities
}
