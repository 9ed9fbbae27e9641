package storage

import (
	"context"
	"sort"
	"sync"

	"ecagent-hq/ecagent/pkg/evidence"
)

// MemoryStorage keeps run records in a map. It is used by tests and by
// one-shot CLI runs that do not persist evidence.
type MemoryStorage struct {
	records map[string]*evidence.RunRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.RunRecord),
	}
}

// Store saves a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Query returns copies of the matching records, sorted and paginated as the
// query asks.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.RunRecord, error) {
	s.mu.RLock()
	results := s.matching(query)
	s.mu.RUnlock()

	return paginate(results, query.Offset, query.Limit), nil
}

// QueryStream streams the matching records over a channel.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.RunRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.RunRecord, 100)
	errCh := make(chan error, 1)

	s.mu.RLock()
	results := paginate(s.matching(query), query.Offset, query.Limit)
	s.mu.RUnlock()

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes the matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops all records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.RunRecord)
	return nil
}

// GetByID returns a copy of one record, or nil.
func (s *MemoryStorage) GetByID(id string) *evidence.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	return cloneRecord(record)
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matching returns sorted copies of the records matching query. The caller
// holds the read lock.
func (s *MemoryStorage) matching(query *evidence.Query) []*evidence.RunRecord {
	var results []*evidence.RunRecord
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, cloneRecord(record))
		}
	}
	sortRecords(results, query.SortBy, query.SortOrder)
	return results
}

func matchesQuery(record *evidence.RunRecord, query *evidence.Query) bool {
	if query.StartTime != nil && record.StartedTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.StartedTime.After(*query.EndTime) {
		return false
	}
	if query.ProjectName != "" && record.ProjectName != query.ProjectName {
		return false
	}
	if query.RuleSetHash != "" && record.RuleSetHash != query.RuleSetHash {
		return false
	}
	if query.Status != "" && record.Status != query.Status {
		return false
	}
	if query.MinCost != nil && record.TotalEstimatedCost < *query.MinCost {
		return false
	}
	if query.MaxCost != nil && record.TotalEstimatedCost > *query.MaxCost {
		return false
	}
	if query.RuleID != "" {
		found := false
		for _, fired := range record.FiredRules {
			if fired.RuleID == query.RuleID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortRecords orders records by the named field. The default is newest
// first by start time; ties break on ID so the order is deterministic.
func sortRecords(records []*evidence.RunRecord, by, order string) {
	desc := order != "asc"
	less := func(a, b *evidence.RunRecord) int {
		switch by {
		case "recorded_time":
			return a.RecordedTime.Compare(b.RecordedTime)
		case "total_estimated_cost":
			return compareFloat(a.TotalEstimatedCost, b.TotalEstimatedCost)
		case "rules_fired":
			return a.RulesFired - b.RulesFired
		default:
			return a.StartedTime.Compare(b.StartedTime)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		c := less(records[i], records[j])
		if c == 0 {
			return records[i].ID < records[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func paginate(records []*evidence.RunRecord, offset, limit int) []*evidence.RunRecord {
	if offset >= len(records) {
		return []*evidence.RunRecord{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

func cloneRecord(record *evidence.RunRecord) *evidence.RunRecord {
	c := *record
	if record.RuleSetVersion != nil {
		v := *record.RuleSetVersion
		c.RuleSetVersion = &v
	}
	if record.FiredRules != nil {
		c.FiredRules = make([]evidence.FiredRule, len(record.FiredRules))
		for i, f := range record.FiredRules {
			f.Annotations = append([]string(nil), f.Annotations...)
			c.FiredRules[i] = f
		}
	}
	return &c
}
