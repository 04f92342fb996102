// Package console provides a sink that writes events as JSON lines to a
// writer, os.Stdout by default. Useful for development and debugging.
package console

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/internal/pipeline/jsoncodec"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "console"

// DefaultWriter allows overriding the output for testing.
var DefaultWriter io.Writer = os.Stdout

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.ConsoleCapabilities)
}

// Build creates a new console sink writing to DefaultWriter.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	return New(DefaultWriter), nil
}

// Console writes each event as one JSON line.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a console sink writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// Handle writes the event as a JSON line.
func (c *Console) Handle(ctx context.Context, ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return jsoncodec.Encode(c.w, ev)
}

// Close closes the sink.
func (c *Console) Close() error {
	return nil
}

// Capabilities returns the capabilities of this sink.
func (c *Console) Capabilities() sink.Capabilities {
	return sink.ConsoleCapabilities
}
