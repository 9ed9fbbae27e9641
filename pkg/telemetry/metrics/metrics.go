package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/engine"
)

// Result label values for rule evaluations.
const (
	ResultFired   = "fired"
	ResultSkipped = "skipped"
)

// EngineMetrics collects engine and watch-mode metrics.
type EngineMetrics struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	ruleEvaluations   *prometheus.CounterVec
	quantityDefaults  *prometheus.CounterVec
	runsTotal         prometheus.Counter
	runDuration       prometheus.Histogram
	rulesFiredPerRun  prometheus.Histogram
	ruleReloads       *prometheus.CounterVec
	evidencePruned    prometheus.Counter
	evidencePruneErrs prometheus.Counter
}

var _ engine.Observer = (*EngineMetrics)(nil)

// NewEngineMetrics creates and registers the metrics. If registry is nil a
// new registry is created.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RunDurationBuckets) == 0 {
		// Runs are in-memory rule passes: 100µs to 1s.
		cfg.RunDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0}
	}

	m := &EngineMetrics{
		config:   cfg,
		registry: registry,
		ruleEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_evaluations_total",
				Help:      "Rule condition evaluations by rule and result.",
			},
			[]string{"rule_id", "result"},
		),
		quantityDefaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "quantity_defaults_total",
				Help:      "Quantities replaced by the default after a formula failure.",
			},
			[]string{"rule_id"},
		),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runs_total",
			Help:      "Completed project runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of a project run.",
			Buckets:   cfg.RunDurationBuckets,
		}),
		rulesFiredPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rules_fired_per_run",
			Help:      "Number of rules fired in a project run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		ruleReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_reloads_total",
				Help:      "Rule file reloads by status.",
			},
			[]string{"status"},
		),
		evidencePruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evidence_pruned_total",
			Help:      "Evidence run records deleted by retention.",
		}),
		evidencePruneErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evidence_prune_errors_total",
			Help:      "Failed retention runs.",
		}),
	}

	registry.MustRegister(
		m.ruleEvaluations,
		m.quantityDefaults,
		m.runsTotal,
		m.runDuration,
		m.rulesFiredPerRun,
		m.ruleReloads,
		m.evidencePruned,
		m.evidencePruneErrs,
	)
	return m
}

// RuleEvaluated implements engine.Observer.
func (m *EngineMetrics) RuleEvaluated(ruleID string, fired bool) {
	if !m.config.Enabled {
		return
	}
	result := ResultSkipped
	if fired {
		result = ResultFired
	}
	m.ruleEvaluations.WithLabelValues(ruleID, result).Inc()
}

// QuantityDefaulted implements engine.Observer.
func (m *EngineMetrics) QuantityDefaulted(ruleID string) {
	if !m.config.Enabled {
		return
	}
	m.quantityDefaults.WithLabelValues(ruleID).Inc()
}

// RunCompleted implements engine.Observer.
func (m *EngineMetrics) RunCompleted(duration time.Duration, rulesFired int) {
	if !m.config.Enabled {
		return
	}
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())
	m.rulesFiredPerRun.Observe(float64(rulesFired))
}

// RecordReload counts a rule file reload attempt.
func (m *EngineMetrics) RecordReload(err error) {
	if !m.config.Enabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ruleReloads.WithLabelValues(status).Inc()
}

// RecordPrune counts a retention run.
func (m *EngineMetrics) RecordPrune(deleted int64, err error) {
	if !m.config.Enabled {
		return
	}
	if err != nil {
		m.evidencePruneErrs.Inc()
		return
	}
	m.evidencePruned.Add(float64(deleted))
}

// Registry returns the Prometheus registry holding the metrics.
func (m *EngineMetrics) Registry() *prometheus.Registry {
	return m.registry
}
