// Package logtap is a request-outcome logging pipeline built on Watermill.
// It collects structured notes about in-flight requests from concurrent
// producers, resolves each request's final status, assembles exactly one
// primary access event per outcome, and fans finalized events out to
// registered sinks without ever delaying or failing the request path.
//
// A request is tracked from Begin until a grace window after ReportOutcome.
// Notes appended while the request is open travel inside the primary access
// event; notes that arrive during the grace window are batched into a single
// supplementary event; notes that arrive even later are flagged post-hoc and
// emitted immediately so nothing is ever lost. A minimal setup therefore
// involves filling Config, creating a Pipeline, registering sinks, and
// reporting notes and outcomes; see README.md for a copy/paste quick start
// snippet.
//
// # Sinks
//
// Logtap ships 8 sinks out of the box:
//   - console: JSON lines on stdout
//   - file: JSON lines appended to a file
//   - channel: In-memory Go channels for testing
//   - nats: High-performance messaging
//   - kafka: High-throughput streaming
//   - amqp: RabbitMQ durable queues
//   - http: POST per event to an HTTP endpoint
//   - sns: AWS SNS with LocalStack support
//
// Each sink runs behind its own bounded queue and worker, so one slow or
// failing sink never affects the others. Queue saturation is governed by the
// configured overflow policy and every delivery runs under a budget with
// panic recovery.
//
// # Hooks
//
// DeliveryHooks provide OnDeliver, OnDone, OnError, and OnDrop callbacks for
// custom logging, metrics collection, and alerting around sink delivery.
// Prometheus metrics and OpenTelemetry publish spans are built in; enable
// metrics via Config and they are served on the configured port.
package logtap
