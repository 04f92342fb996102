package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

func TestSinkName(t *testing.T) {
	assert.Equal(t, "kafka", SinkName)
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, sink.DefaultRegistry.Has(SinkName))
	caps := sink.DefaultRegistry.GetCapabilities(SinkName)
	assert.True(t, caps.Durable)
	assert.True(t, caps.Remote)
	assert.True(t, caps.SupportsBatching)
}

func TestBuild(t *testing.T) {
	t.Run("creates sink with mocked factory", func(t *testing.T) {
		originalFactory := PublisherFactory
		defer func() { PublisherFactory = originalFactory }()

		mockPub := &mockPublisher{}
		PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
			return mockPub, nil
		}

		cfg := &mockConfig{brokers: []string{"localhost:9092"}, topic: "access.events"}
		s, err := Build(context.Background(), cfg, watermill.NopLogger{})
		require.NoError(t, err)

		f, ok := s.(*Forwarder)
		require.True(t, ok)
		assert.Equal(t, mockPub, f.publisher)
		assert.Equal(t, "access.events", f.topic)
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		originalFactory := PublisherFactory
		defer func() { PublisherFactory = originalFactory }()

		PublisherFactory = func(cfg wmkafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), &mockConfig{brokers: []string{"localhost:9092"}}, watermill.NopLogger{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "publisher error")
	})
}

func TestForwarder_Handle(t *testing.T) {
	pub := &mockPublisher{}
	f := &Forwarder{publisher: pub, topic: "access.events"}

	ev := event.Event{ID: "ev-1", Category: event.CategoryError, RequestID: "req-1"}
	require.NoError(t, f.Handle(context.Background(), ev))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "access.events", pub.topics[0])
	assert.Equal(t, "error", pub.published[0].Metadata.Get(sink.MetadataKeyCategory))
	assert.Equal(t, "req-1", pub.published[0].Metadata.Get(sink.MetadataKeyRequestID))
}

func TestForwarder_Close(t *testing.T) {
	pub := &mockPublisher{}
	f := &Forwarder{publisher: pub, topic: "t"}

	require.NoError(t, f.Close())
	assert.True(t, pub.closed)
}

func TestForwarder_Capabilities(t *testing.T) {
	f := &Forwarder{}
	assert.Equal(t, sink.KafkaCapabilities, f.Capabilities())
}

type mockConfig struct {
	brokers []string
	topic   string
}

func (m *mockConfig) GetSinkKind() string           { return "kafka" }
func (m *mockConfig) GetSinkTopic() string          { return m.topic }
func (m *mockConfig) GetFilePath() string           { return "" }
func (m *mockConfig) GetNATSURL() string            { return "" }
func (m *mockConfig) GetKafkaBrokers() []string     { return m.brokers }
func (m *mockConfig) GetKafkaClientID() string      { return "" }
func (m *mockConfig) GetAMQPURL() string            { return "" }
func (m *mockConfig) GetHTTPEndpoint() string       { return "" }
func (m *mockConfig) GetAWSRegion() string          { return "" }
func (m *mockConfig) GetAWSAccountID() string       { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string     { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string { return "" }
func (m *mockConfig) GetAWSEndpoint() string        { return "" }

type mockPublisher struct {
	topics    []string
	published []*message.Message
	closed    bool
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		m.topics = append(m.topics, topic)
		m.published = append(m.published, msg)
	}
	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true
	return nil
}
