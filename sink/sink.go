// Package sink defines the contract for logtap log consumers. Each sink
// implementation (console, file, nats, kafka, amqp, http, sns, ...) lives in
// its own sub-package and registers itself with the sink registry.
package sink

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tapward/logtap/event"
)

// Sink consumes finalized log events. Handle is invoked asynchronously by the
// dispatch bus, one event at a time per registration, under a bounded
// processing budget carried by ctx. Returned errors and panics are contained
// by the bus: they are logged and counted but never reach the request path
// and never stop future deliveries to the same sink.
type Sink interface {
	Handle(ctx context.Context, ev event.Event) error
	Close() error
}

// Builder is the function signature for creating a sink from config.
// Each sink package should provide a Builder function that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error)

// Config provides the configuration values needed by sinks. This interface
// allows sinks to access only the config they need without depending on the
// full config package.
type Config interface {
	// GetSinkKind returns the sink kind name.
	GetSinkKind() string

	// GetSinkTopic returns the topic/subject forwarding sinks publish to.
	GetSinkTopic() string

	// File
	GetFilePath() string

	// NATS
	GetNATSURL() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaClientID() string

	// AMQP
	GetAMQPURL() string

	// HTTP
	GetHTTPEndpoint() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by sinks that can report their
// capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
