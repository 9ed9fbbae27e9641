package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/evidence"
	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/parser"
)

// Config contains configuration for the recorder.
type Config struct {
	// Enabled enables recording. A disabled recorder builds records but
	// never writes them.
	Enabled bool

	// Async queues records for a background writer instead of writing them
	// before Record returns.
	Async bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 100
	AsyncBuffer int

	// WriteTimeout bounds each storage write and the wait for queue space.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  100,
		WriteTimeout: 5 * time.Second,
	}
}

// Run is the input to Record.
type Run struct {
	Facts       project.Facts
	ProjectFile string
	Rules       *ast.RuleSet
	Version     *evidence.RuleSetVersion
	Output      *engine.ProjectOutput // nil when the run failed
	Err         error
	Started     time.Time
}

// Recorder writes run records.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	recordChan chan *evidence.RunRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a recorder. In async mode it starts the background writer.
func New(storage evidence.Storage, config *Config, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 100
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		done:    make(chan struct{}),
		logger:  logger.With("component", "evidence.recorder"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if config.Async {
		r.recordChan = make(chan *evidence.RunRecord, config.AsyncBuffer)
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Record builds the run record and writes or queues it. The record is
// returned even when writing fails.
func (r *Recorder) Record(ctx context.Context, run Run) (*evidence.RunRecord, error) {
	record, err := r.Build(run)
	if err != nil {
		return nil, evidence.NewRecorderError("", err)
	}
	if !r.config.Enabled {
		return record, nil
	}

	if !r.config.Async {
		return record, r.writeRecord(ctx, record)
	}

	select {
	case r.recordChan <- record:
		r.logger.Debug("run record enqueued", "record_id", record.ID)
		return record, nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("run record channel full, dropping record",
			"record_id", record.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return record, evidence.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		return record, evidence.NewRecorderError(record.ID, context.Canceled)
	case <-ctx.Done():
		return record, evidence.NewRecorderError(record.ID, ctx.Err())
	}
}

// Build creates the run record without writing it.
func (r *Recorder) Build(run Run) (*evidence.RunRecord, error) {
	factsHash, err := HashFacts(run.Facts)
	if err != nil {
		return nil, fmt.Errorf("failed to hash facts: %w", err)
	}

	now := r.now()
	started := run.Started
	if started.IsZero() {
		started = now
	}

	record := &evidence.RunRecord{
		ID:             uuid.New().String(),
		ProjectFile:    run.ProjectFile,
		StartedTime:    started.UTC(),
		RecordedTime:   now,
		Duration:       now.Sub(started),
		FactsHash:      factsHash,
		RuleSetVersion: run.Version,
		Status:         evidence.StatusSuccess,
	}
	if name, ok := run.Facts.Lookup("project_name"); ok {
		record.ProjectName = fmt.Sprint(name)
	}
	if run.Rules != nil {
		record.RuleSetHash = run.Rules.Hash
		record.RuleSetSource = run.Rules.SourceFile
		if record.RuleSetSource == "" {
			record.RuleSetSource = parser.DefaultSource
		}
	}

	if run.Err != nil {
		record.Status = evidence.StatusError
		record.Error = run.Err.Error()
	}
	if run.Output != nil {
		fillOutcome(record, run.Output)
	}
	return record, nil
}

// Close stops the background writer after draining queued records.
// Close is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			_ = r.writeRecord(context.Background(), record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					_ = r.writeRecord(context.Background(), record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(ctx context.Context, record *evidence.RunRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store run record",
			"record_id", record.ID,
			"project", record.ProjectName,
			"error", err,
		)
		return evidence.NewRecorderError(record.ID, err)
	}

	r.logger.Info("run recorded",
		"record_id", record.ID,
		"project", record.ProjectName,
		"rules_fired", record.RulesFired,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func fillOutcome(record *evidence.RunRecord, out *engine.ProjectOutput) {
	if record.ProjectName == "" {
		record.ProjectName = out.ProjectName
	}
	record.RulesEvaluated = out.Summary.RulesEvaluated
	record.RulesFired = out.Summary.RulesFired
	record.TotalEstimatedCost = out.Summary.TotalEstimatedCost
	record.UnverifiedCitations = out.Summary.UnverifiedCitations
	record.Annotations = len(out.Summary.Annotations)

	payItems := make(map[string]string, len(out.PayItems))
	for _, p := range out.PayItems {
		payItems[p.RuleID] = p.ItemNumber
	}
	notes := make(map[string][]string)
	for _, a := range out.Summary.Annotations {
		notes[a.RuleID] = append(notes[a.RuleID], a.Message)
	}

	record.FiredRules = make([]evidence.FiredRule, 0, out.Summary.RulesFired)
	for _, p := range out.Practices() {
		fired := evidence.FiredRule{
			RuleID:       p.RuleID,
			PracticeType: string(p.PracticeType),
			Quantity:     p.Quantity,
			Unit:         p.Unit,
			PayItem:      payItems[p.RuleID],
			Annotations:  notes[p.RuleID],
		}
		if p.Citation != nil {
			fired.Citation = p.Citation.Label
		}
		record.FiredRules = append(record.FiredRules, fired)
	}
}
