// Package metrics exposes Prometheus metrics for the recommendation engine.
//
// EngineMetrics implements engine.Observer, so attaching it to an engine
// config is enough to count rule evaluations, defaulted quantities and
// completed runs. Rule reloads and evidence pruning are recorded by the
// watch command through RecordReload and RecordPrune.
//
// Metrics are registered on a dedicated registry and served by Handler:
//
//	m := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, m.Handler())
package metrics
