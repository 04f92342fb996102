// Package http provides a sink that forwards events to an HTTP endpoint.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/ThreeDotsLabs/watermill"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

// SinkName is the name used to register this sink.
const SinkName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config wmhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wmhttp.NewPublisher(config, logger)
}

func init() {
	sink.RegisterWithCapabilities(SinkName, Build, sink.HTTPCapabilities)
}

// Build creates a new HTTP forwarding sink. Each event is POSTed to the
// configured endpoint with the topic appended to the path.
func Build(ctx context.Context, cfg sink.Config, logger watermill.LoggerAdapter) (sink.Sink, error) {
	endpoint := cfg.GetHTTPEndpoint()

	publisher, err := PublisherFactory(
		wmhttp.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				url := endpoint + topic
				return wmhttp.DefaultMarshalMessageFunc(url, msg)
			},
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Forwarder{publisher: publisher, topic: sink.ForwardTopic(cfg)}, nil
}

// Forwarder POSTs each event to an HTTP endpoint.
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
	return sink.HTTPCapabilities
}
