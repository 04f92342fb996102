package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tapward/logtap/event"
	configpkg "github.com/tapward/logtap/internal/pipeline/config"
	"github.com/tapward/logtap/internal/pipeline/jsoncodec"
	loggingpkg "github.com/tapward/logtap/internal/pipeline/logging"
)

const (
	metadataKeyCategory  = "logtap_category"
	metadataKeyRequestID = "logtap_request_id"

	topicPrefix = "logtap.events."
)

func topicFor(c event.Category) string {
	return topicPrefix + string(c)
}

var dispatchTopics = []event.Category{
	event.CategoryAccess,
	event.CategoryInfo,
	event.CategoryError,
}

// dispatchBus decouples event publication from sink delivery. Publish hands
// the event to an in-memory Watermill Pub/Sub and returns promptly; dispatch
// loops fan each event out to a fresh registry snapshot, one bounded queue
// per registration, so a slow or faulty sink only ever degrades its own
// delivery.
type dispatchBus struct {
	logger   loggingpkg.Logger
	pubsub   *gochannel.GoChannel
	registry *handlerRegistry
	hooks    DeliveryHooks
	metrics  *pipelineMetrics

	budget       time.Duration
	policy       string
	blockTimeout time.Duration

	wg sync.WaitGroup
}

func newDispatchBus(conf configpkg.Config, log loggingpkg.Logger, registry *handlerRegistry, hooks DeliveryHooks, metrics *pipelineMetrics) *dispatchBus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: int64(conf.BusBuffer)},
		loggingpkg.NewWatermillAdapter(log),
	)
	return &dispatchBus{
		logger:       log,
		pubsub:       pubsub,
		registry:     registry,
		hooks:        hooks,
		metrics:      metrics,
		budget:       conf.DeliveryBudget,
		policy:       conf.OverflowPolicy,
		blockTimeout: conf.BlockTimeout,
	}
}

// Run subscribes to the per-category topics and starts the dispatch loops.
// The loops exit when ctx is cancelled or the bus is closed.
func (b *dispatchBus) Run(ctx context.Context) error {
	for _, category := range dispatchTopics {
		messages, err := b.pubsub.Subscribe(ctx, topicFor(category))
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topicFor(category), err)
		}
		b.wg.Add(1)
		go b.dispatchLoop(messages)
	}
	return nil
}

func (b *dispatchBus) dispatchLoop(messages <-chan *message.Message) {
	defer b.wg.Done()
	for msg := range messages {
		var ev event.Event
		if err := jsoncodec.Unmarshal(msg.Payload, &ev); err != nil {
			b.logger.Error("Failed to decode event", err, loggingpkg.LogFields{
				"message_uuid": msg.UUID,
			})
			msg.Ack()
			continue
		}
		b.dispatch(ev)
		msg.Ack()
	}
}

// Publish hands the event to the bus. It never blocks on sink work; failures
// are contained and surfaced only to the pipeline's diagnostic logger.
func (b *dispatchBus) Publish(ev event.Event) error {
	tracer := otel.Tracer("logtap-dispatch")
	_, span := tracer.Start(
		context.Background(),
		"PublishEvent",
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.category", string(ev.Category)),
		attribute.String("event.request_id", string(ev.RequestID)),
	)

	payload, err := jsoncodec.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set(metadataKeyCategory, string(ev.Category))
	msg.Metadata.Set(metadataKeyRequestID, string(ev.RequestID))

	if err := b.pubsub.Publish(topicFor(ev.Category), msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	b.metrics.observePublish(string(ev.Category))
	return nil
}

// dispatch fans the event out to a fresh registry snapshot. Registrations
// added after this point receive subsequent events only.
func (b *dispatchBus) dispatch(ev event.Event) {
	for _, reg := range b.registry.Snapshot() {
		b.enqueue(reg, ev)
	}
}

func (b *dispatchBus) enqueue(reg *Registration, ev event.Event) {
	switch b.policy {
	case configpkg.OverflowDropNewest:
		select {
		case reg.queue <- ev:
		default:
			b.drop(reg, ev)
		}
	case configpkg.OverflowBlock:
		select {
		case reg.queue <- ev:
		case <-time.After(b.blockTimeout):
			b.drop(reg, ev)
		}
	default: // drop_oldest
		for {
			select {
			case reg.queue <- ev:
				return
			default:
			}
			select {
			case old := <-reg.queue:
				b.drop(reg, old)
			default:
			}
		}
	}
}

func (b *dispatchBus) drop(reg *Registration, ev event.Event) {
	b.metrics.observeDrop(reg.Name)
	if b.hooks.OnDrop != nil {
		b.hooks.OnDrop(DeliveryContext{HandlerID: reg.ID, Name: reg.Name, Event: ev})
	}
	b.logger.Debug("Delivery queue full, event dropped", loggingpkg.LogFields{
		"sink":     reg.Name,
		"event_id": ev.ID,
		"policy":   b.policy,
	})
}

// startWorker runs the registration's delivery loop.
func (b *dispatchBus) startWorker(reg *Registration) {
	go func() {
		defer close(reg.done)
		for {
			select {
			case <-reg.stop:
				// Drain what is already queued, then exit.
				for {
					select {
					case ev := <-reg.queue:
						b.deliver(reg, ev)
					default:
						return
					}
				}
			case ev := <-reg.queue:
				b.deliver(reg, ev)
			}
		}
	}()
}

// stopWorker signals the worker and waits for it to drain, bounded by ctx.
func (b *dispatchBus) stopWorker(ctx context.Context, reg *Registration) error {
	close(reg.stop)
	select {
	case <-reg.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sink %s: worker did not drain: %w", reg.Name, ctx.Err())
	}
}

// deliver invokes the sink under the processing budget, isolating faults and
// slowness from every other registration and from the request path.
func (b *dispatchBus) deliver(reg *Registration, ev event.Event) {
	dctx := DeliveryContext{
		HandlerID: reg.ID,
		Name:      reg.Name,
		Event:     ev,
		StartedAt: time.Now(),
	}
	if b.hooks.OnDeliver != nil {
		b.hooks.OnDeliver(dctx)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.budget)
	defer cancel()

	err := b.invoke(ctx, reg, ev)
	dctx.Duration = time.Since(dctx.StartedAt)

	if err != nil {
		b.metrics.observeFailure(reg.Name, dctx.Duration)
		if b.hooks.OnError != nil {
			b.hooks.OnError(dctx, err)
		}
		b.logger.Error("Sink delivery failed", err, loggingpkg.LogFields{
			"sink":        reg.Name,
			"event_id":    ev.ID,
			"category":    ev.Category,
			"duration_ms": dctx.Duration.Milliseconds(),
		})
		return
	}

	b.metrics.observeDelivery(reg.Name, dctx.Duration)
	if b.hooks.OnDone != nil {
		b.hooks.OnDone(dctx)
	}
}

// invoke runs Handle on its own goroutine so a sink that ignores its context
// cannot hold the worker past the budget. Panics become errors.
func (b *dispatchBus) invoke(ctx context.Context, reg *Registration, ev event.Event) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("sink panic: %v", r)
			}
		}()
		result <- reg.sink.Handle(ctx, ev)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delivery budget exceeded: %w", ctx.Err())
	}
}

// Close shuts the underlying Pub/Sub down and waits for the dispatch loops.
func (b *dispatchBus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
