package config

import "time"

// Default values for configuration fields.
const (
	// Rules defaults
	DefaultRulesWatch       = true
	DefaultRulesDebounce    = 200 * time.Millisecond
	DefaultRulesMaxFileSize = int64(4 * 1024 * 1024)
	DefaultRulesMaxDepth    = 16

	// Engine defaults
	DefaultEngineQuantity        = 1.0
	DefaultEngineUsePriceHistory = true

	// Citation defaults
	DefaultCitationsResourcesDir   = "resources/indot"
	DefaultCitationsRequiredPrefix = "INDOT"
	DefaultCitationsTopK           = 3

	// Pricing defaults
	DefaultPricingDBPath        = "data/bidtabs.db"
	DefaultPricingBusyTimeout   = 5 * time.Second
	DefaultPricingLookupTimeout = 2 * time.Second

	// Evidence defaults
	DefaultEvidenceEnabled              = true
	DefaultEvidenceBackend              = "sqlite"
	DefaultEvidenceSQLitePath           = "data/evidence.db"
	DefaultEvidenceSQLiteMaxOpenConns   = 10
	DefaultEvidenceSQLiteMaxIdleConns   = 5
	DefaultEvidenceSQLiteWALMode        = true
	DefaultEvidenceSQLiteBusyTimeout    = 5 * time.Second
	DefaultEvidenceRecorderAsyncBuffer  = 100
	DefaultEvidenceRecorderWriteTimeout = 5 * time.Second
	DefaultEvidenceRetentionDays        = 365
	DefaultEvidenceRetentionSchedule    = "0 3 * * *"
	DefaultEvidenceRetentionArchivePath = "data/archives/"
	DefaultEvidenceQueryDefaultLimit    = 100
	DefaultEvidenceQueryTimeout         = 30 * time.Second
	DefaultEvidenceExportJSONPretty     = true
	DefaultEvidenceExportCSVHeader      = true

	// Server defaults
	DefaultServerListenAddress   = "127.0.0.1:9090"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "console"
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "ecagent"
	DefaultTracingSampler      = "always"
	DefaultTracingSampleRatio  = 1.0
	DefaultTracingExporter     = "otlp"
	DefaultTracingServiceName  = "ecagent"
	DefaultTracingOTLPInsecure = true
	DefaultTracingOTLPTimeout  = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthVersionPath   = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// Default returns a configuration with every field set to its default.
// Boolean defaults are only representable here; LoadConfig decodes the file
// on top of this value so that omitted booleans keep their defaults.
func Default() *Config {
	cfg := &Config{
		Rules:  RulesConfig{Watch: DefaultRulesWatch},
		Engine: EngineConfig{UsePriceHistory: DefaultEngineUsePriceHistory},
		Evidence: EvidenceConfig{
			Enabled: DefaultEvidenceEnabled,
			SQLite:  SQLiteConfig{WALMode: DefaultEvidenceSQLiteWALMode},
			Export: ExportConfig{
				JSONPretty:       DefaultEvidenceExportJSONPretty,
				CSVIncludeHeader: DefaultEvidenceExportCSVHeader,
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{OTLP: OTLPConfig{Insecure: DefaultTracingOTLPInsecure}},
			Health:  HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	cfg.Evidence.Retention.Days = DefaultEvidenceRetentionDays
	cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for fields that hold their zero value. It is
// idempotent. Booleans and fields whose zero value is meaningful (retention
// days, sample ratio) are left alone; see Default.
func ApplyDefaults(cfg *Config) {
	// Rules defaults
	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = DefaultRulesDebounce
	}
	if cfg.Rules.MaxFileSize == 0 {
		cfg.Rules.MaxFileSize = DefaultRulesMaxFileSize
	}
	if cfg.Rules.MaxDepth == 0 {
		cfg.Rules.MaxDepth = DefaultRulesMaxDepth
	}

	// Engine defaults
	if cfg.Engine.DefaultQuantity == 0 {
		cfg.Engine.DefaultQuantity = DefaultEngineQuantity
	}

	// Citation defaults
	if cfg.Citations.ResourcesDir == "" {
		cfg.Citations.ResourcesDir = DefaultCitationsResourcesDir
	}
	if cfg.Citations.RequiredPrefix == "" {
		cfg.Citations.RequiredPrefix = DefaultCitationsRequiredPrefix
	}
	if cfg.Citations.TopK == 0 {
		cfg.Citations.TopK = DefaultCitationsTopK
	}

	// Pricing defaults
	if cfg.Pricing.DBPath == "" {
		cfg.Pricing.DBPath = DefaultPricingDBPath
	}
	if cfg.Pricing.BusyTimeout == 0 {
		cfg.Pricing.BusyTimeout = DefaultPricingBusyTimeout
	}
	if cfg.Pricing.LookupTimeout == 0 {
		cfg.Pricing.LookupTimeout = DefaultPricingLookupTimeout
	}

	// Evidence defaults
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.SQLite.MaxOpenConns == 0 {
		cfg.Evidence.SQLite.MaxOpenConns = DefaultEvidenceSQLiteMaxOpenConns
	}
	if cfg.Evidence.SQLite.MaxIdleConns == 0 {
		cfg.Evidence.SQLite.MaxIdleConns = DefaultEvidenceSQLiteMaxIdleConns
	}
	if cfg.Evidence.SQLite.BusyTimeout == 0 {
		cfg.Evidence.SQLite.BusyTimeout = DefaultEvidenceSQLiteBusyTimeout
	}
	if cfg.Evidence.Recorder.AsyncBuffer == 0 {
		cfg.Evidence.Recorder.AsyncBuffer = DefaultEvidenceRecorderAsyncBuffer
	}
	if cfg.Evidence.Recorder.WriteTimeout == 0 {
		cfg.Evidence.Recorder.WriteTimeout = DefaultEvidenceRecorderWriteTimeout
	}
	if cfg.Evidence.Retention.PruneSchedule == "" {
		cfg.Evidence.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
	if cfg.Evidence.Retention.ArchivePath == "" {
		cfg.Evidence.Retention.ArchivePath = DefaultEvidenceRetentionArchivePath
	}
	if cfg.Evidence.Query.DefaultLimit == 0 {
		cfg.Evidence.Query.DefaultLimit = DefaultEvidenceQueryDefaultLimit
	}
	if cfg.Evidence.Query.Timeout == 0 {
		cfg.Evidence.Query.Timeout = DefaultEvidenceQueryTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultHealthVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
