package evidence

import "fmt"

// StorageError wraps a failure in a storage backend operation such as
// "store", "query" or "delete".
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("evidence %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError returns a StorageError for op on backend.
func NewStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}

// QueryError reports an invalid query or a failed query execution.
type QueryError struct {
	Query *Query
	Err   error
}

func (e *QueryError) Error() string { return "evidence query: " + e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError returns a QueryError for q.
func NewQueryError(q *Query, err error) *QueryError {
	return &QueryError{Query: q, Err: err}
}

// RecorderError is returned when a run record cannot be written. RunID is
// empty when the failure happened before an id was assigned.
type RecorderError struct {
	RunID string
	Err   error
}

func (e *RecorderError) Error() string {
	if e.RunID == "" {
		return "record run: " + e.Err.Error()
	}
	return fmt.Sprintf("record run %s: %v", e.RunID, e.Err)
}

func (e *RecorderError) Unwrap() error { return e.Err }

// NewRecorderError returns a RecorderError for the run runID.
func NewRecorderError(runID string, err error) *RecorderError {
	return &RecorderError{RunID: runID, Err: err}
}

// RetentionError is returned when pruning by age fails.
type RetentionError struct {
	Days int
	Err  error
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("prune runs older than %d days: %v", e.Days, e.Err)
}

func (e *RetentionError) Unwrap() error { return e.Err }

// NewRetentionError returns a RetentionError for a retention of days.
func NewRetentionError(days int, err error) *RetentionError {
	return &RetentionError{Days: days, Err: err}
}

// ExportError is returned when records cannot be exported. Count is the
// number of records written or attempted.
type ExportError struct {
	Format string
	Count  int
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %d runs as %s: %v", e.Count, e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// NewExportError returns an ExportError for format.
func NewExportError(format string, count int, err error) *ExportError {
	return &ExportError{Format: format, Count: count, Err: err}
}
