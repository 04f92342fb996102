package pipeline

import (
	"time"

	"github.com/tapward/logtap/event"
	loggingpkg "github.com/tapward/logtap/internal/pipeline/logging"
)

// DeliveryContext provides information about one delivery attempt to hooks.
type DeliveryContext struct {
	// HandlerID identifies the registration the event was routed to.
	HandlerID HandlerID
	// Name is the registration name.
	Name string
	// Event is the event being delivered.
	Event event.Event
	// StartedAt is when the delivery started.
	StartedAt time.Time
	// Duration is how long the delivery took (only set in OnDone and OnError).
	Duration time.Duration
}

// DeliveryHooks defines callbacks around sink deliveries.
// All hooks are optional - nil hooks are simply not called.
type DeliveryHooks struct {
	// OnDeliver is called before the sink's Handle is invoked.
	OnDeliver func(ctx DeliveryContext)

	// OnDone is called when a delivery completes successfully.
	OnDone func(ctx DeliveryContext)

	// OnError is called when a delivery fails, panics, or exceeds its
	// processing budget. The failure never propagates past the hook.
	OnError func(ctx DeliveryContext, err error)

	// OnDrop is called when the queue overflow policy discards an event for
	// one registration.
	OnDrop func(ctx DeliveryContext)
}

// Merge combines two DeliveryHooks, creating a new DeliveryHooks that calls
// both. The hooks from 'other' are called after the hooks from 'h'.
func (h DeliveryHooks) Merge(other DeliveryHooks) DeliveryHooks {
	return DeliveryHooks{
		OnDeliver: chainHooks(h.OnDeliver, other.OnDeliver),
		OnDone:    chainHooks(h.OnDone, other.OnDone),
		OnError:   chainErrorHooks(h.OnError, other.OnError),
		OnDrop:    chainHooks(h.OnDrop, other.OnDrop),
	}
}

func chainHooks(a, b func(DeliveryContext)) func(DeliveryContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DeliveryContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(DeliveryContext, error)) func(DeliveryContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx DeliveryContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

// LoggingHooks returns pre-built hooks that log delivery outcomes.
func LoggingHooks(logger loggingpkg.Logger) DeliveryHooks {
	return DeliveryHooks{
		OnDone: func(ctx DeliveryContext) {
			logger.Debug("Event delivered", loggingpkg.LogFields{
				"sink":        ctx.Name,
				"event_id":    ctx.Event.ID,
				"category":    ctx.Event.Category,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnError: func(ctx DeliveryContext, err error) {
			logger.Error("Event delivery failed", err, loggingpkg.LogFields{
				"sink":        ctx.Name,
				"event_id":    ctx.Event.ID,
				"category":    ctx.Event.Category,
				"duration_ms": ctx.Duration.Milliseconds(),
			})
		},
		OnDrop: func(ctx DeliveryContext) {
			logger.Info("Event dropped by overflow policy", loggingpkg.LogFields{
				"sink":     ctx.Name,
				"event_id": ctx.Event.ID,
				"category": ctx.Event.Category,
			})
		},
	}
}

// MetricsHooks returns pre-built hooks that forward delivery outcomes to the
// supplied counters.
func MetricsHooks(onDeliver, onDone, onError func(name string, category event.Category)) DeliveryHooks {
	return DeliveryHooks{
		OnDeliver: func(ctx DeliveryContext) {
			if onDeliver != nil {
				onDeliver(ctx.Name, ctx.Event.Category)
			}
		},
		OnDone: func(ctx DeliveryContext) {
			if onDone != nil {
				onDone(ctx.Name, ctx.Event.Category)
			}
		},
		OnError: func(ctx DeliveryContext, err error) {
			if onError != nil {
				onError(ctx.Name, ctx.Event.Category)
			}
		},
	}
}
