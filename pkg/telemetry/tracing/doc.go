// Package tracing configures OpenTelemetry tracing.
//
// New installs a global tracer provider exporting over OTLP/gRPC when
// tracing is enabled, and a no-op tracer otherwise. Packages that create
// spans (the engine, the citation binder) obtain their tracer through
// otel.Tracer and need no direct dependency on this package.
//
// Sampling strategies:
//
//   - always: sample every run
//   - never: sample nothing
//   - ratio: sample a fraction of runs by trace id
//
// Every sampler is wrapped in ParentBased so child spans follow the root.
package tracing
