package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tapward/logtap/event"
	configpkg "github.com/tapward/logtap/internal/pipeline/config"
	errspkg "github.com/tapward/logtap/internal/pipeline/errors"
	idspkg "github.com/tapward/logtap/internal/pipeline/ids"
	loggingpkg "github.com/tapward/logtap/internal/pipeline/logging"
	sinkpkg "github.com/tapward/logtap/sink"
)

// Dependencies holds the optional collaborators the Pipeline can use.
type Dependencies struct {
	// Hooks are appended after the default logging hooks.
	Hooks DeliveryHooks
	// DisableDefaultHooks skips the default logging hooks when true.
	DisableDefaultHooks bool
	// Registerer receives the pipeline metrics when metrics are enabled.
	// Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Pipeline collects notes about in-flight requests, assembles exactly one
// access event per reported outcome, and fans finalized events out to the
// registered sinks without ever delaying the request path.
type Pipeline struct {
	Conf   configpkg.Config
	Logger loggingpkg.Logger

	collector *collector
	registry  *handlerRegistry
	bus       *dispatchBus
	metrics   *pipelineMetrics

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex

	cancel context.CancelFunc
	closed atomic.Bool
}

// New constructs a Pipeline for the supplied configuration and starts its
// dispatch loops. Register sinks on the returned Pipeline; call Shutdown to
// stop it.
func New(conf *configpkg.Config, log loggingpkg.Logger, ctx context.Context, deps Dependencies) (*Pipeline, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}
	normalized := conf.Normalized()

	log.Info("Creating log pipeline", loggingpkg.LogFields{
		"grace_window":    normalized.GraceWindow.String(),
		"delivery_budget": normalized.DeliveryBudget.String(),
		"overflow_policy": normalized.OverflowPolicy,
		"config":          normalized,
	})

	p := &Pipeline{
		Conf:      normalized,
		Logger:    log,
		collector: newCollector(),
		registry:  newHandlerRegistry(),
	}

	if normalized.MetricsEnabled {
		registerer := deps.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		p.metrics = newPipelineMetrics(registerer)
		if normalized.MetricsPort > 0 {
			p.RegisterHTTPHandler(normalized.MetricsPort, "/metrics", promhttp.Handler())
		}
	}

	hooks := deps.Hooks
	if !deps.DisableDefaultHooks {
		hooks = LoggingHooks(log).Merge(hooks)
	}

	p.bus = newDispatchBus(normalized, log, p.registry, hooks, p.metrics)

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	if err := p.bus.Run(runCtx); err != nil {
		cancel()
		return nil, err
	}

	p.startHTTPServers()

	return p, nil
}

// Begin starts tracking a new request and returns its identifier. Every note
// and the final outcome for the request must carry this identifier.
func (p *Pipeline) Begin() event.RequestID {
	id := event.RequestID(idspkg.CreateULID())
	p.collector.Track(id)
	return id
}

// ReportNote records one structured fact about the request. It may be called
// from the primary decision path and from an independent streaming path
// concurrently, at any point up to and after the outcome was reported. Notes
// are never lost: appends after finalize join the grace-window batch, appends
// after retirement become post-hoc supplementary events.
func (p *Pipeline) ReportNote(id event.RequestID, n event.Note) {
	if p.closed.Load() {
		p.Logger.Error("Note reported after shutdown", errspkg.ErrPipelineClosed, loggingpkg.LogFields{
			"request_id": id,
		})
		return
	}
	switch p.collector.Append(id, n) {
	case appendPostHoc:
		n.PostHoc = true
		p.publish(p.newEvent(event.CategoryError, id, event.Outcome{Notes: []event.Note{n}}, map[string]string{
			event.MetaSupplementary: "true",
			event.MetaPostHoc:       "true",
		}))
	default:
		// Accepted or batched for the grace window; nothing to emit yet.
	}
}

// ReportOutcome finalizes the request: it resolves the descriptor, drains the
// collected notes, and dispatches the single primary access event. The
// request then stays correlatable for the configured grace window. A second
// report for the same request is a protocol violation; it is recorded as a
// diagnostic note and never produces a second primary event.
func (p *Pipeline) ReportOutcome(id event.RequestID, d event.StatusDescriptor) {
	if p.closed.Load() {
		p.Logger.Error("Outcome reported after shutdown", errspkg.ErrPipelineClosed, loggingpkg.LogFields{
			"request_id": id,
		})
		return
	}

	code, phrase, diag := event.ResolveChecked(d)

	notes, ok := p.collector.Finalize(id, code, phrase)
	if !ok {
		p.Logger.Error("Duplicate outcome report", fmt.Errorf("request already finalized"), loggingpkg.LogFields{
			"request_id": id,
			"descriptor": d.String(),
		})
		p.ReportNote(id, event.ErrorNote("duplicate outcome report: "+d.String()))
		return
	}

	if implied, hasNote := d.ErrorNote(); hasNote {
		notes = append(notes, implied)
	}
	if diag != nil {
		notes = append(notes, *diag)
	}

	p.publish(p.newEvent(event.CategoryAccess, id, event.Outcome{Status: code, Phrase: phrase, Notes: notes}, nil))

	timer := time.AfterFunc(p.Conf.GraceWindow, func() { p.closeGraceWindow(id) })
	p.collector.SetTimer(id, timer)
}

// closeGraceWindow retires the request and emits one supplementary error
// event if late notes were batched during the window.
func (p *Pipeline) closeGraceWindow(id event.RequestID) {
	late, status, phrase, ok := p.collector.Retire(id)
	if !ok || len(late) == 0 {
		return
	}
	p.publish(p.newEvent(event.CategoryError, id, event.Outcome{Status: status, Phrase: phrase, Notes: late}, map[string]string{
		event.MetaSupplementary: "true",
	}))
}

// EmitInfo publishes an informational event outside the request flow.
func (p *Pipeline) EmitInfo(payload string, meta map[string]string) {
	if p.closed.Load() {
		return
	}
	p.publish(p.newEvent(event.CategoryInfo, "", event.Outcome{Notes: []event.Note{event.InfoNote(payload)}}, meta))
}

func (p *Pipeline) newEvent(category event.Category, id event.RequestID, outcome event.Outcome, meta map[string]string) event.Event {
	return event.Event{
		ID:        idspkg.CreateULID(),
		Category:  category,
		RequestID: id,
		Outcome:   outcome,
		Meta:      meta,
		EmittedAt: time.Now().UTC(),
	}
}

// publish hands the event to the bus. Failures stay inside the pipeline: the
// only externally visible effect is a missing log event, never an error on
// the request path.
func (p *Pipeline) publish(ev event.Event) {
	if err := p.bus.Publish(ev); err != nil {
		p.Logger.Error("Failed to publish event", err, loggingpkg.LogFields{
			"event_id":   ev.ID,
			"category":   ev.Category,
			"request_id": ev.RequestID,
		})
	}
}

// Register adds a sink under the given name and returns its registration id.
// Registering a name that is already live replaces the prior registration:
// its worker is stopped, its sink closed, and future events are delivered
// exactly once to the replacement.
func (p *Pipeline) Register(name string, s sinkpkg.Sink) (HandlerID, error) {
	if name == "" {
		return "", errspkg.ErrSinkNameRequired
	}
	if s == nil {
		return "", errspkg.ErrSinkRequired
	}
	if p.closed.Load() {
		return "", errspkg.ErrPipelineClosed
	}

	reg := newRegistration(name, s, p.Conf.QueueCapacity)
	replaced := p.registry.Register(reg)
	p.bus.startWorker(reg)

	if replaced != nil {
		p.retire(replaced)
		p.Logger.Info("Sink registration replaced", loggingpkg.LogFields{
			"sink":        name,
			"handler_id":  reg.ID,
			"replaced_id": replaced.ID,
		})
	} else {
		p.Logger.Info("Sink registered", loggingpkg.LogFields{
			"sink":       name,
			"handler_id": reg.ID,
		})
	}
	return reg.ID, nil
}

// RegisterKind builds a sink of the configured kind through the default sink
// registry and registers it under the given name.
func (p *Pipeline) RegisterKind(ctx context.Context, name string) (HandlerID, error) {
	s, err := sinkpkg.Build(ctx, &p.Conf, loggingpkg.NewWatermillAdapter(p.Logger))
	if err != nil {
		return "", err
	}
	return p.Register(name, s)
}

// Unregister removes the registration with the given id, draining its queue
// and closing its sink. It reports whether the id was live.
func (p *Pipeline) Unregister(id HandlerID) bool {
	reg := p.registry.Unregister(id)
	if reg == nil {
		return false
	}
	p.retire(reg)
	return true
}

func (p *Pipeline) retire(reg *Registration) {
	ctx, cancel := context.WithTimeout(context.Background(), p.Conf.DeliveryBudget)
	defer cancel()
	if err := p.bus.stopWorker(ctx, reg); err != nil {
		p.Logger.Error("Sink worker did not stop cleanly", err, loggingpkg.LogFields{"sink": reg.Name})
	}
	if err := reg.sink.Close(); err != nil {
		p.Logger.Error("Sink close failed", err, loggingpkg.LogFields{"sink": reg.Name})
	}
}

// Handlers returns the live registrations in registration order.
func (p *Pipeline) Handlers() []HandlerInfo {
	return p.registry.Infos()
}

// Shutdown flushes open grace windows, stops the bus and every sink worker,
// and closes the sinks. Queued events are drained, bounded by ctx.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	// Emit leftover notes before tearing the bus down. Direct dispatch
	// avoids racing the closing Pub/Sub.
	for _, f := range p.collector.FlushAll() {
		meta := map[string]string{event.MetaSupplementary: "true"}
		if !f.finalized {
			meta["shutdown_flush"] = "true"
		}
		p.bus.dispatch(p.newEvent(event.CategoryError, f.id, event.Outcome{Status: f.status, Phrase: f.phrase, Notes: f.notes}, meta))
	}

	var errs []error
	if err := p.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	p.cancel()

	for _, reg := range p.registry.Drain() {
		if err := p.bus.stopWorker(ctx, reg); err != nil {
			errs = append(errs, err)
		}
		if err := reg.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", reg.Name, err))
		}
	}

	return errors.Join(errs...)
}

// RegisterHTTPHandler mounts an HTTP handler on the pipeline's server for the
// given port. Servers start together with the pipeline.
func (p *Pipeline) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	p.httpServersMu.Lock()
	defer p.httpServersMu.Unlock()

	if p.httpServers == nil {
		p.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := p.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		p.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (p *Pipeline) startHTTPServers() {
	p.httpServersMu.Lock()
	defer p.httpServersMu.Unlock()

	for port, mux := range p.httpServers {
		addr := fmt.Sprintf(":%d", port)
		p.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(addr string, handler http.Handler) {
			if err := http.ListenAndServe(addr, handler); err != nil {
				p.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": addr})
			}
		}(addr, mux)
	}
}
