package evidence

import (
	"context"
	"io"
	"time"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunRecord is the audit trail of one processed project: what went in, which
// rule set was used, which rules fired and what they cited.
type RunRecord struct {
	// Identity
	ID          string `json:"id"`           // UUID v4
	ProjectName string `json:"project_name"` // From the project input
	ProjectFile string `json:"project_file"` // Input path, if loaded from disk

	// Timestamps
	StartedTime  time.Time     `json:"started_time"`  // When processing began
	RecordedTime time.Time     `json:"recorded_time"` // When the record was written
	Duration     time.Duration `json:"duration"`      // Processing time

	// Inputs
	FactsHash      string          `json:"facts_hash"`       // SHA-256 of the canonical facts
	RuleSetHash    string          `json:"rule_set_hash"`    // SHA-256 of the rule document
	RuleSetSource  string          `json:"rule_set_source"`  // Rule file path or "<defaults>"
	RuleSetVersion *RuleSetVersion `json:"rule_set_version"` // Git provenance, when available

	// Outcome
	RulesEvaluated      int         `json:"rules_evaluated"`
	RulesFired          int         `json:"rules_fired"`
	FiredRules          []FiredRule `json:"fired_rules"`
	TotalEstimatedCost  float64     `json:"total_estimated_cost"`
	UnverifiedCitations int         `json:"unverified_citations"`
	Annotations         int         `json:"annotations"`

	// Error info
	Status string `json:"status"` // "success" or "error"
	Error  string `json:"error"`  // Error message if the run failed
}

// FiredRule captures one rule that fired during a run.
type FiredRule struct {
	RuleID       string   `json:"rule_id"`
	PracticeType string   `json:"practice_type"`
	Quantity     float64  `json:"quantity"`
	Unit         string   `json:"unit"`
	PayItem      string   `json:"pay_item"`
	Citation     string   `json:"citation"`    // Citation label bound to the practice
	Annotations  []string `json:"annotations"` // Annotation messages for this rule
}

// RuleSetVersion is the git provenance of a rule file.
type RuleSetVersion struct {
	// CommitSHA is the HEAD commit of the repository holding the rule file.
	CommitSHA string `json:"commit_sha"`

	// CommitTime is when the commit was created.
	CommitTime time.Time `json:"commit_time"`

	// Branch is the checked-out branch, empty when HEAD is detached.
	Branch string `json:"branch"`

	// Author is the commit author (name and email).
	Author string `json:"author"`

	// Message is the commit message.
	Message string `json:"message,omitempty"`

	// Dirty reports uncommitted changes to the rule file.
	Dirty bool `json:"dirty,omitempty"`
}

// Query defines filter parameters for querying run records.
type Query struct {
	// Time range over StartedTime
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	ProjectName string `json:"project_name,omitempty"`  // Exact project name
	RuleID      string `json:"rule_id,omitempty"`       // Runs in which this rule fired
	RuleSetHash string `json:"rule_set_hash,omitempty"` // Runs against this rule document
	Status      string `json:"status,omitempty"`        // "success" or "error"

	// Thresholds
	MinCost *float64 `json:"min_cost,omitempty"` // Minimum total estimated cost
	MaxCost *float64 `json:"max_cost,omitempty"` // Maximum total estimated cost

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "started_time", "recorded_time", "total_estimated_cost", "rules_fired"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for run record storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a run record.
	Store(ctx context.Context, record *RunRecord) error

	// Query retrieves run records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*RunRecord, error)

	// QueryStream returns a channel of run records for memory-efficient streaming.
	//
	// Returns:
	//   - recordsCh: Channel of run records (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid query)
	//
	// The channels are closed when the query completes or errors.
	QueryStream(ctx context.Context, query *Query) (<-chan *RunRecord, <-chan error, error)

	// Count returns the number of run records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes run records matching the query filters and returns how
	// many were removed. Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes run records in some format.
type Exporter interface {
	Export(ctx context.Context, records []*RunRecord, w io.Writer) error
}
