package config

import "time"

// Config is the root configuration structure for ecagent.
type Config struct {
	// Rules configures where rules come from and how they are parsed.
	Rules RulesConfig `yaml:"rules"`

	// Engine configures the recommendation engine.
	Engine EngineConfig `yaml:"engine"`

	// Citations configures the reference document corpus and source policy.
	Citations CitationsConfig `yaml:"citations"`

	// PayItems configures the pay-item catalog used to verify output.
	PayItems PayItemsConfig `yaml:"pay_items"`

	// Pricing configures the bid-tab price history store.
	Pricing PricingConfig `yaml:"pricing"`

	// Evidence configures run record storage and retention.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Server configures the HTTP listener used in watch mode.
	Server ServerConfig `yaml:"server"`

	// Telemetry configures logging, metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig contains rule loading configuration.
type RulesConfig struct {
	// File is the rule file path. Empty uses the built-in default rules.
	// Default: ""
	File string `yaml:"file"`

	// Watch reloads the rule file on change in watch mode.
	// Default: true
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a change before reloading.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`

	// MaxFileSize is the largest accepted rule file in bytes.
	// Default: 4MB
	MaxFileSize int64 `yaml:"max_file_size"`

	// MaxDepth is the deepest accepted condition nesting.
	// Default: 16
	MaxDepth int `yaml:"max_depth"`
}

// EngineConfig contains recommendation engine configuration.
type EngineConfig struct {
	// DefaultQuantity replaces quantities whose formula fails.
	// Default: 1.0
	DefaultQuantity float64 `yaml:"default_quantity"`

	// UsePriceHistory fills missing unit costs from the pricing store.
	// Default: true
	UsePriceHistory bool `yaml:"use_price_history"`
}

// CitationsConfig contains citation configuration.
type CitationsConfig struct {
	// ResourcesDir holds the reference documents and their manifest.
	// Default: "resources/indot"
	ResourcesDir string `yaml:"resources_dir"`

	// RequiredPrefix must start every cited document id.
	// Default: "INDOT"
	RequiredPrefix string `yaml:"required_prefix"`

	// AllowAnySource accepts citations from any document.
	// Default: false
	AllowAnySource bool `yaml:"allow_any_source"`

	// TopK is the number of passages retrieved per practice.
	// Default: 3
	TopK int `yaml:"top_k"`
}

// PayItemsConfig contains pay-item catalog configuration.
type PayItemsConfig struct {
	// CatalogPath is the catalog YAML file. Empty disables verification.
	// Default: ""
	CatalogPath string `yaml:"catalog_path"`
}

// PricingConfig contains bid-tab price history configuration.
type PricingConfig struct {
	// DBPath is the SQLite database for imported bid tabs.
	// Default: "data/bidtabs.db"
	DBPath string `yaml:"db_path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// LookupTimeout bounds each unit price lookup made by the engine.
	// Default: 2s
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

// EvidenceConfig contains evidence configuration.
type EvidenceConfig struct {
	// Enabled controls whether run records are written.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains query configuration.
	Query QueryConfig `yaml:"query"`

	// Export contains export configuration.
	Export ExportConfig `yaml:"export"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains evidence recorder configuration.
type RecorderConfig struct {
	// Async writes records from a background goroutine.
	// Default: false
	Async bool `yaml:"async"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 100
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain run records. 0 keeps them forever.
	// Default: 365
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduled pruning in watch mode.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete writes pruned records to ArchivePath first.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for archived records.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`

	// MaxRecords is the maximum number of records to keep. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// QueryConfig contains query configuration.
type QueryConfig struct {
	// DefaultLimit is the number of records returned when no limit is given.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// Timeout is the query execution timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ExportConfig contains export configuration.
type ExportConfig struct {
	// JSONPretty enables pretty-printing for JSON exports.
	// Default: true
	JSONPretty bool `yaml:"json_pretty"`

	// CSVIncludeHeader includes a header row in CSV exports.
	// Default: true
	CSVIncludeHeader bool `yaml:"csv_include_header"`
}

// ServerConfig contains the watch-mode HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is the address for metrics and health endpoints.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint in watch mode.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "ecagent"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// RunDurationBuckets defines histogram buckets for run duration (seconds).
	RunDurationBuckets []float64 `yaml:"run_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter is the trace exporter. Only "otlp" is supported.
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "ecagent"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health endpoints are served in watch mode.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for build information.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for each readiness check.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
