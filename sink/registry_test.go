package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapward/logtap/event"
)

// Mock config for testing
type mockConfig struct {
	sinkKind  string
	sinkTopic string
}

func (m *mockConfig) GetSinkKind() string           { return m.sinkKind }
func (m *mockConfig) GetSinkTopic() string          { return m.sinkTopic }
func (m *mockConfig) GetFilePath() string           { return "" }
func (m *mockConfig) GetNATSURL() string            { return "" }
func (m *mockConfig) GetKafkaBrokers() []string     { return nil }
func (m *mockConfig) GetKafkaClientID() string      { return "" }
func (m *mockConfig) GetAMQPURL() string            { return "" }
func (m *mockConfig) GetHTTPEndpoint() string       { return "" }
func (m *mockConfig) GetAWSRegion() string          { return "" }
func (m *mockConfig) GetAWSAccountID() string       { return "" }
func (m *mockConfig) GetAWSAccessKeyID() string     { return "" }
func (m *mockConfig) GetAWSSecretAccessKey() string { return "" }
func (m *mockConfig) GetAWSEndpoint() string        { return "" }

type mockSink struct{}

func (m *mockSink) Handle(ctx context.Context, ev event.Event) error { return nil }
func (m *mockSink) Close() error                                     { return nil }

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg)
	assert.NotNil(t, reg.builders)
	assert.NotNil(t, reg.capabilities)
	assert.Empty(t, reg.Names())
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	reg.Register("test-sink", builder)
	assert.True(t, reg.Has("test-sink"))
	assert.Contains(t, reg.Names(), "test-sink")
}

func TestRegistry_RegisterWithCapabilities(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	caps := Capabilities{
		Name:    "test-sink",
		Durable: true,
		Remote:  true,
	}

	reg.RegisterWithCapabilities("test-sink", builder, caps)

	assert.True(t, reg.Has("test-sink"))
	retrievedCaps := reg.GetCapabilities("test-sink")
	assert.Equal(t, "test-sink", retrievedCaps.Name)
	assert.True(t, retrievedCaps.Durable)
	assert.True(t, retrievedCaps.Remote)
}

func TestRegistry_GetCapabilities_Unknown(t *testing.T) {
	reg := NewRegistry()
	caps := reg.GetCapabilities("unknown")
	assert.Equal(t, "unknown", caps.Name)
	assert.False(t, caps.Durable)
	assert.False(t, caps.Remote)
}

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	reg.Register("test-sink", builder)

	cfg := &mockConfig{sinkKind: "test-sink"}
	ctx := context.Background()

	s, err := reg.Build(ctx, cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegistry_Build_NilConfig(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	_, err := reg.Build(ctx, nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")
}

func TestRegistry_Build_UnknownSink(t *testing.T) {
	reg := NewRegistry()
	cfg := &mockConfig{sinkKind: "unknown-sink"}
	ctx := context.Background()

	_, err := reg.Build(ctx, cfg, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sink kind")
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	reg := NewRegistry()

	expectedErr := errors.New("builder error")
	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return nil, expectedErr
	}

	reg.Register("failing-sink", builder)
	cfg := &mockConfig{sinkKind: "failing-sink"}
	ctx := context.Background()

	_, err := reg.Build(ctx, cfg, nil)
	assert.Error(t, err)
	assert.Equal(t, expectedErr, err)
}

func TestRegistry_Has(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	assert.False(t, reg.Has("test-sink"))

	reg.Register("test-sink", builder)
	assert.True(t, reg.Has("test-sink"))
	assert.False(t, reg.Has("other-sink"))
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	assert.Empty(t, reg.Names())

	reg.Register("sink1", builder)
	reg.Register("sink2", builder)
	reg.Register("sink3", builder)

	names := reg.Names()
	assert.Len(t, names, 3)
	assert.Contains(t, names, "sink1")
	assert.Contains(t, names, "sink2")
	assert.Contains(t, names, "sink3")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				reg.Register("sink", builder)
				reg.Has("sink")
				reg.Names()
				reg.GetCapabilities("sink")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, reg.Has("sink"))
}

func TestGlobalRegistry(t *testing.T) {
	assert.NotNil(t, DefaultRegistry)
}

func TestPackageLevelRegister(t *testing.T) {
	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	Register("test-pkg-sink", builder)
	assert.True(t, DefaultRegistry.Has("test-pkg-sink"))
}

func TestPackageLevelRegisterWithCapabilities(t *testing.T) {
	builder := func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Sink, error) {
		return &mockSink{}, nil
	}

	caps := Capabilities{
		Name:    "test-pkg-caps-sink",
		Durable: true,
	}

	RegisterWithCapabilities("test-pkg-caps-sink", builder, caps)

	assert.True(t, DefaultRegistry.Has("test-pkg-caps-sink"))
	retrievedCaps := DefaultRegistry.GetCapabilities("test-pkg-caps-sink")
	assert.Equal(t, "test-pkg-caps-sink", retrievedCaps.Name)
	assert.True(t, retrievedCaps.Durable)
}

func TestNewMessage(t *testing.T) {
	ev := event.Event{
		ID:        "ev-1",
		Category:  event.CategoryAccess,
		RequestID: "req-1",
		Outcome:   event.Outcome{Status: 200, Phrase: "OK"},
		EmittedAt: time.Now().UTC(),
	}

	msg, err := NewMessage(ev)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", msg.UUID)
	assert.Equal(t, "access", msg.Metadata.Get(MetadataKeyCategory))
	assert.Equal(t, "req-1", msg.Metadata.Get(MetadataKeyRequestID))
	assert.Contains(t, string(msg.Payload), `"status":200`)
}

func TestForwardTopic(t *testing.T) {
	assert.Equal(t, "custom.topic", ForwardTopic(&mockConfig{sinkTopic: "custom.topic"}))
	assert.Equal(t, DefaultForwardTopic, ForwardTopic(&mockConfig{}))
}
