// Package amqp provides a sink that forwards events to RabbitMQ/AMQP.
package amqp

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "amqp"

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg wmamqp.ConnectionConfig, logger watermill.LoggerAdapter) (*wmamqp.ConnectionWrapper, error) {
	return wmamqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg wmamqp.Config, logger watermill.LoggerAdapter, conn *wmamqp.ConnectionWrapper) (message.Publisher, error) {
	return wmamqp.NewPublisherWithConnection(cfg, logger, conn)
}

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.AMQPCapabilities)
}

// Build creates a new AMQP forwarding sink.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	url := cfg.GetAMQPURL()

	amqpConfig := wmamqp.NewDurablePubSubConfig(
		url,
		wmamqp.GenerateQueueNameTopicName,
	)

	conn, err := ConnectionFactory(wmamqp.ConnectionConfig{
		AmqpURI:   url,
		TLSConfig: nil,
		Reconnect: wmamqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := PublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		return nil, err
	}

	return &Forwarder{publisher: publisher, conn: conn, topic: sink.ForwardTopic(cfg)}, nil
}

// Forwarder publishes each event to an AMQP exchange.
type Forwarder struct {
	publisher message.Publisher
	conn      *wmamqp.ConnectionWrapper
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

// Close closes the publisher and the underlying connection.
func (f *Forwarder) Close() error {
	if err := f.publisher.Close(); err != nil {
		return err
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

// Capabilities returns the capabilities of this sink.
func (f *Forwarder) Capabilities() sink.Capabilities {
	return sink.AMQPCapabilities
}
