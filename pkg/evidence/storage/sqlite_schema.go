package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the run record tables.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    project_name TEXT NOT NULL,
    project_file TEXT NOT NULL DEFAULT '',

    -- Timestamps (Unix nanoseconds)
    started_time INTEGER NOT NULL,
    recorded_time INTEGER NOT NULL,
    duration INTEGER NOT NULL DEFAULT 0,

    -- Inputs
    facts_hash TEXT NOT NULL,
    rule_set_hash TEXT NOT NULL,
    rule_set_source TEXT NOT NULL DEFAULT '',
    rule_set_version TEXT,

    -- Outcome
    rules_evaluated INTEGER NOT NULL DEFAULT 0,
    rules_fired INTEGER NOT NULL DEFAULT 0,
    fired_rules TEXT NOT NULL DEFAULT '[]',
    rule_ids TEXT NOT NULL DEFAULT ',',
    total_estimated_cost REAL NOT NULL DEFAULT 0,
    unverified_citations INTEGER NOT NULL DEFAULT 0,
    annotations INTEGER NOT NULL DEFAULT 0,

    -- Error info
    status TEXT NOT NULL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_time ON runs(started_time);
CREATE INDEX IF NOT EXISTS idx_runs_project_name ON runs(project_name);
CREATE INDEX IF NOT EXISTS idx_runs_rule_set_hash ON runs(rule_set_hash);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads the newest schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, project_name, project_file,
	started_time, recorded_time, duration,
	facts_hash, rule_set_hash, rule_set_source, rule_set_version,
	rules_evaluated, rules_fired, fired_rules, total_estimated_cost, unverified_citations, annotations,
	status, error`

// sortColumns maps query sort fields to columns.
var sortColumns = map[string]string{
	"started_time":         "started_time",
	"recorded_time":        "recorded_time",
	"total_estimated_cost": "total_estimated_cost",
	"rules_fired":          "rules_fired",
}
