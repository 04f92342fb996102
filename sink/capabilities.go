package sink

// Capabilities describes the delivery characteristics of a sink backend.
// Use this to introspect what a registered sink kind offers at runtime.
type Capabilities struct {
	// Name is the human-readable name of the sink kind.
	Name string

	// Durable indicates events survive a process restart once handled.
	Durable bool

	// Remote indicates the sink forwards events off-process.
	Remote bool

	// SupportsBatching indicates the backend can batch multiple events.
	SupportsBatching bool
}

// Predefined capability sets for the built-in sinks.
var (
	ConsoleCapabilities = Capabilities{Name: "console"}

	ChannelCapabilities = Capabilities{Name: "channel"}

	FileCapabilities = Capabilities{Name: "file", Durable: true}

	NATSCapabilities = Capabilities{Name: "nats", Remote: true}

	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		Durable:          true,
		Remote:           true,
		SupportsBatching: true,
	}

	AMQPCapabilities = Capabilities{Name: "amqp", Durable: true, Remote: true}

	HTTPCapabilities = Capabilities{Name: "http", Remote: true}

	SNSCapabilities = Capabilities{
		Name:             "sns",
		Remote:           true,
		SupportsBatching: true,
	}
)
