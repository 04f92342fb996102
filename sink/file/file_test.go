package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

type fileConfig struct {
	path string
}

func (f *fileConfig) GetSinkKind() string           { return SinkName }
func (f *fileConfig) GetSinkTopic() string          { return "" }
func (f *fileConfig) GetFilePath() string           { return f.path }
func (f *fileConfig) GetNATSURL() string            { return "" }
func (f *fileConfig) GetKafkaBrokers() []string     { return nil }
func (f *fileConfig) GetKafkaClientID() string      { return "" }
func (f *fileConfig) GetAMQPURL() string            { return "" }
func (f *fileConfig) GetHTTPEndpoint() string       { return "" }
func (f *fileConfig) GetAWSRegion() string          { return "" }
func (f *fileConfig) GetAWSAccountID() string       { return "" }
func (f *fileConfig) GetAWSAccessKeyID() string     { return "" }
func (f *fileConfig) GetAWSSecretAccessKey() string { return "" }
func (f *fileConfig) GetAWSEndpoint() string        { return "" }

func TestFile_HandleAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	f := New(path)

	ev := event.Event{ID: "ev-1", Category: event.CategoryAccess, Outcome: event.Outcome{Status: 200}}
	require.NoError(t, f.Handle(context.Background(), ev))

	ev.ID = "ev-2"
	require.NoError(t, f.Handle(context.Background(), ev))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"ev-1"`)
	assert.Contains(t, lines[1], `"id":"ev-2"`)
}

func TestFile_HandleCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.log")
	f := New(path)

	require.NoError(t, f.Handle(context.Background(), event.Event{ID: "ev-1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestBuild(t *testing.T) {
	t.Run("configured path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.log")
		s, err := Build(context.Background(), &fileConfig{path: path}, watermill.NopLogger{})
		require.NoError(t, err)

		f, ok := s.(*File)
		require.True(t, ok)
		assert.Equal(t, path, f.path)
	})

	t.Run("default path", func(t *testing.T) {
		s, err := Build(context.Background(), &fileConfig{}, watermill.NopLogger{})
		require.NoError(t, err)

		f, ok := s.(*File)
		require.True(t, ok)
		assert.Equal(t, DefaultFilePath, f.path)
	})
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, sink.DefaultRegistry.Has(SinkName))
}
