// Package file provides a sink that appends events as JSON lines to a file.
package file

import (
	"context"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/internal/pipeline/jsoncodec"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "file"

// DefaultFilePath is the default file path if none is configured.
const DefaultFilePath = "access.log"

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.FileCapabilities)
}

// Build creates a new file sink for the configured path.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	path := cfg.GetFilePath()
	if path == "" {
		path = DefaultFilePath
	}
	return New(path), nil
}

// File appends each event as one JSON line. The file is opened per write so
// rotation by an external tool is safe.
type File struct {
	mu   sync.Mutex
	path string
}

// New creates a file sink appending to path.
func New(path string) *File {
	return &File{path: path}
}

// Handle appends the event to the file.
func (f *File) Handle(ctx context.Context, ev event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	out, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	b, err := jsoncodec.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := out.Write(b); err != nil {
		return err
	}
	_, err = out.WriteString("\n")
	return err
}

// Close closes the sink.
func (f *File) Close() error {
	return nil
}

// Capabilities returns the capabilities of this sink.
func (f *File) Capabilities() sink.Capabilities {
	return sink.FileCapabilities
}
