// Package health serves liveness, readiness and version endpoints for the
// long-running watch command.
//
// Components register readiness checks by name; in watch mode these cover
// the active rule set and the evidence store:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("rules", func(ctx context.Context) error { ... })
//	health.Register(mux, checker, &cfg.Telemetry.Health, version, commit, buildTime)
package health
