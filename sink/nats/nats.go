// Package nats provides a sink that forwards events to NATS Core.
package nats

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "nats"

// ConnectTimeout bounds the initial NATS connection attempt.
const ConnectTimeout = 5 * time.Second

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmnats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmnats.NewPublisher(cfg, logger)
}

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.NATSCapabilities)
}

// Build creates a new NATS forwarding sink.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	publisher, err := PublisherFactory(
		wmnats.PublisherConfig{
			URL:       cfg.GetNATSURL(),
			Marshaler: &wmnats.NATSMarshaler{},
			NatsOptions: []natsgo.Option{
				natsgo.Name("logtap"),
				natsgo.Timeout(ConnectTimeout),
			},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Forwarder{publisher: publisher, topic: sink.ForwardTopic(cfg)}, nil
}

// Forwarder publishes each event to a NATS subject.
type Forwarder struct {
	publisher message.Publisher
	topic     string
}

// Handle forwards the event.
func (f *Forwarder) Handle(ctx context.Context, ev event.Event) error {
	msg, err := sink.NewMessage(ev)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return f.publisher.Publish(f.topic, msg)
}

// Close closes the underlying publisher.
func (f *Forwarder) Close() error {
	return f.publisher.Close()
}

// Capabilities returns the capabilities of this sink.
func (f *Forwarder) Capabilities() sink.Capabilities {
	return sink.NATSCapabilities
}
