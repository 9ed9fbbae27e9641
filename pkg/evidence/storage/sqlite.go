package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ecagent-hq/ecagent/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements evidence.Storage on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema if needed.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeout := s.config.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store inserts a run record.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.RunRecord) error {
	firedRules, err := json.Marshal(record.FiredRules)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	var version any
	if record.RuleSetVersion != nil {
		data, err := json.Marshal(record.RuleSetVersion)
		if err != nil {
			return evidence.NewStorageError("sqlite", "store", err)
		}
		version = string(data)
	}

	var errorVal any
	if record.Error != "" {
		errorVal = record.Error
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, project_name, project_file,
			started_time, recorded_time, duration,
			facts_hash, rule_set_hash, rule_set_source, rule_set_version,
			rules_evaluated, rules_fired, fired_rules, rule_ids, total_estimated_cost, unverified_citations, annotations,
			status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.ProjectName, record.ProjectFile,
		record.StartedTime.UnixNano(), record.RecordedTime.UnixNano(), int64(record.Duration),
		record.FactsHash, record.RuleSetHash, record.RuleSetSource, version,
		record.RulesEvaluated, record.RulesFired, string(firedRules), ruleIDs(record.FiredRules),
		record.TotalEstimatedCost, record.UnverifiedCitations, record.Annotations,
		record.Status, errorVal,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves matching run records.
func (s *SQLiteStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.RunRecord, error) {
	sqlQuery, args := s.selectQuery(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.RunRecord{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	return records, nil
}

// QueryStream streams matching run records over a channel.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.RunRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.RunRecord, 100)
	errCh := make(chan error, 1)
	sqlQuery, args := s.selectQuery(query)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRow(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of matching run records.
func (s *SQLiteStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhereClause(query)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+where, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching run records.
func (s *SQLiteStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	where, args := buildWhereClause(query)

	result, err := s.db.ExecContext(ctx, "DELETE FROM runs"+where, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) selectQuery(query *evidence.Query) (string, []any) {
	where, args := buildWhereClause(query)

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "started_time"
	}
	order := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		order = "ASC"
	}

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM runs%s ORDER BY %s %s, id LIMIT %d",
		selectColumns, where, column, order, limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}
	return sqlQuery, args
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(query *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "started_time >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_time <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.ProjectName != "" {
		conditions = append(conditions, "project_name = ?")
		args = append(args, query.ProjectName)
	}
	if query.RuleSetHash != "" {
		conditions = append(conditions, "rule_set_hash = ?")
		args = append(args, query.RuleSetHash)
	}
	if query.RuleID != "" {
		conditions = append(conditions, "instr(rule_ids, ?) > 0")
		args = append(args, ","+query.RuleID+",")
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}
	if query.MinCost != nil {
		conditions = append(conditions, "total_estimated_cost >= ?")
		args = append(args, *query.MinCost)
	}
	if query.MaxCost != nil {
		conditions = append(conditions, "total_estimated_cost <= ?")
		args = append(args, *query.MaxCost)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRow(row *sql.Rows) (*evidence.RunRecord, error) {
	var (
		record                 evidence.RunRecord
		started, recorded, dur int64
		version, errorVal      sql.NullString
		firedRules             string
	)

	err := row.Scan(
		&record.ID, &record.ProjectName, &record.ProjectFile,
		&started, &recorded, &dur,
		&record.FactsHash, &record.RuleSetHash, &record.RuleSetSource, &version,
		&record.RulesEvaluated, &record.RulesFired, &firedRules,
		&record.TotalEstimatedCost, &record.UnverifiedCitations, &record.Annotations,
		&record.Status, &errorVal,
	)
	if err != nil {
		return nil, err
	}

	record.StartedTime = time.Unix(0, started).UTC()
	record.RecordedTime = time.Unix(0, recorded).UTC()
	record.Duration = time.Duration(dur)
	if errorVal.Valid {
		record.Error = errorVal.String
	}
	if version.Valid && version.String != "" {
		record.RuleSetVersion = &evidence.RuleSetVersion{}
		if err := json.Unmarshal([]byte(version.String), record.RuleSetVersion); err != nil {
			return nil, fmt.Errorf("failed to decode rule set version: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(firedRules), &record.FiredRules); err != nil {
		return nil, fmt.Errorf("failed to decode fired rules: %w", err)
	}
	return &record, nil
}

// ruleIDs renders fired rule ids as ",A,B," so a single rule can be matched
// with instr without partial matches.
func ruleIDs(fired []evidence.FiredRule) string {
	var b strings.Builder
	b.WriteByte(',')
	for _, f := range fired {
		b.WriteString(f.RuleID)
		b.WriteByte(',')
	}
	return b.String()
}

var (
	_ evidence.Storage = (*SQLiteStorage)(nil)
	_ evidence.Storage = (*MemoryStorage)(nil)
)
