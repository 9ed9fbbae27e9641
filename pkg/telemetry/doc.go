// Package telemetry groups the observability packages used by ecagent.
//
// # Components
//
//   - logging: slog logger construction and context fields
//   - metrics: Prometheus metrics for rule evaluation and runs
//   - tracing: OpenTelemetry tracer provider setup
//   - health: liveness and readiness endpoints for watch mode
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	m := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, nil)
//	eng := engine.New(engine.DefaultEngineConfig().WithObserver(m), logger)
//
// Tracing installs a global tracer provider; the engine picks it up through
// otel.Tracer, so no explicit wiring is needed beyond tracing.New.
package telemetry
