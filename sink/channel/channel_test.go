package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/sink"
)

func TestChannel_HandleDelivers(t *testing.T) {
	c := New(4)

	ev := event.Event{ID: "ev-1", Category: event.CategoryAccess}
	require.NoError(t, c.Handle(context.Background(), ev))

	select {
	case got := <-c.Events():
		assert.Equal(t, "ev-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannel_HandleHonoursContext(t *testing.T) {
	c := New(1)
	require.NoError(t, c.Handle(context.Background(), event.Event{ID: "fills-buffer"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Handle(ctx, event.Event{ID: "blocked"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_EventsStayReadableAfterClose(t *testing.T) {
	c := New(4)
	require.NoError(t, c.Handle(context.Background(), event.Event{ID: "ev-1"}))
	require.NoError(t, c.Close())

	select {
	case got := <-c.Events():
		assert.Equal(t, "ev-1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNew_DefaultBuffer(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultBuffer, cap(c.events))

	c = New(-5)
	assert.Equal(t, DefaultBuffer, cap(c.events))
}

func TestBuild(t *testing.T) {
	s, err := Build(context.Background(), nil, watermill.NopLogger{})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, sink.DefaultRegistry.Has(SinkName))
	assert.False(t, sink.DefaultRegistry.GetCapabilities(SinkName).Durable)
}
