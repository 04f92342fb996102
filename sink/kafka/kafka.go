// Package kafka provides a sink that forwards events to Kafka.
package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "kafka"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmkafka.NewPublisher(cfg, logger)
}

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.KafkaCapabilities)
}

// Build creates a new Kafka forwarding sink.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	publisher, err := PublisherFactory(
		wmkafka.PublisherConfig{
			Brokers:   cfg.GetKafkaBrokers(),
			Marshaler: wmkafka.DefaultMarshaler{},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Forwarder{publisher: publisher, topic: sink.ForwardTopic(cfg)}, nil
}

// Forwarder publishes each event to a Kafka topic.
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
	return sink.KafkaCapabilities
}
