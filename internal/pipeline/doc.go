/*
Package pipeline provides the core request-outcome logging infrastructure for
logtap.

# Architecture Overview

The pipeline collects structured facts ("notes") about how one HTTP request
was processed and turns every reported outcome into exactly one access event,
delivered asynchronously to the registered sinks through an in-memory
Watermill Pub/Sub. Nothing on the logging path ever blocks the request path.

# Package Structure

## Pipeline (pipeline.go)

The Pipeline struct is the central orchestrator that wires together:
  - Note collector with per-request grace windows
  - Status resolution and event assembly
  - Dispatch bus (Watermill GoChannel Pub/Sub)
  - Live handler registry with per-registration workers
  - HTTP server for Prometheus metrics

## Note Collector (collector.go)

Per-request accumulator safe for concurrent appends from the primary decision
path and an independent body-streaming path. Records are drained exactly once
at finalize, then held in a grace window so late notes can still be
correlated; later notes become post-hoc supplementary events. No note is
ever silently dropped.

## Dispatch Bus (bus.go)

Publishes finalized events to per-category topics and fans them out to a
fresh registry snapshot per event. Each registration owns a bounded delivery
queue with an explicit overflow policy and a worker that invokes the sink
under a processing budget with panic recovery. A faulty or slow sink only
ever affects its own deliveries.

## Handler Registry (registry.go)

The live set of registered sinks. Registration is idempotent per name:
re-registering replaces rather than duplicates.

## Hooks & Metrics (hooks.go, metrics.go)

DeliveryHooks expose OnDeliver/OnDone/OnError/OnDrop callbacks around sink
deliveries; prebuilt logging and metrics hooks are provided. Prometheus
counters track published events, deliveries, failures, and drops.

# Sub-packages

  - config/: Pipeline configuration with validation
  - errors/: Sentinel errors
  - ids/: ULID generation for request, handler, and event IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and Watermill adapters

# Usage Example

	cfg := &logtap.Config{
		GraceWindow:    time.Second,
		MetricsEnabled: true,
		MetricsPort:    9090,
	}

	pipe, err := logtap.New(cfg, logger, ctx, logtap.Dependencies{})
	if err != nil {
		return err
	}
	pipe.Register("console", console.New(os.Stdout))

	id := pipe.Begin()
	pipe.ReportNote(id, logtap.InfoNote("cache miss"))
	pipe.ReportOutcome(id, logtap.Status(200))
*/
package pipeline
