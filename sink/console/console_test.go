package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

func TestConsole_Handle(t *testing.T) {
	buf := &bytes.Buffer{}
	c := New(buf)

	ev := event.Event{
		ID:        "ev-1",
		Category:  event.CategoryAccess,
		RequestID: "req-1",
		Outcome:   event.Outcome{Status: 200, Phrase: "OK", Notes: []event.Note{event.InfoNote("hit")}},
	}

	require.NoError(t, c.Handle(context.Background(), ev))
	require.NoError(t, c.Handle(context.Background(), ev))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"ev-1"`)
	assert.Contains(t, lines[0], `"status":200`)
}

func TestConsole_Close(t *testing.T) {
	c := New(&bytes.Buffer{})
	assert.NoError(t, c.Close())
}

func TestConsole_Capabilities(t *testing.T) {
	c := New(&bytes.Buffer{})
	caps := c.Capabilities()
	assert.Equal(t, SinkName, caps.Name)
	assert.False(t, caps.Remote)
}

func TestBuild(t *testing.T) {
	orig := DefaultWriter
	defer func() { DefaultWriter = orig }()
	DefaultWriter = &bytes.Buffer{}

	s, err := Build(context.Background(), nil, watermill.NopLogger{})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, sink.DefaultRegistry.Has(SinkName))
	caps := sink.DefaultRegistry.GetCapabilities(SinkName)
	assert.Equal(t, SinkName, caps.Name)
}
