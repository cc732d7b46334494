package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/jobhook/pkg/evidence"
)

// MemoryStorage implements evidence.Storage with an in-memory map.
// Records are lost on exit; use it for tests and dry runs.
type MemoryStorage struct {
	records map[string]*evidence.DecisionRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.DecisionRecord),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return evidence.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records == nil {
		return evidence.NewStorageError("memory", "store", evidence.ErrStorageClosed)
	}
	s.records[record.ID] = copyRecord(record)
	return nil
}

// Query retrieves records matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.DecisionRecord, error) {
	if query == nil {
		query = &evidence.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*evidence.DecisionRecord{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}

	asc := query.SortOrder == "asc"
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.EvaluatedAt.Equal(b.EvaluatedAt) {
			if asc {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if asc {
			return a.EvaluatedAt.Before(b.EvaluatedAt)
		}
		return a.EvaluatedAt.After(b.EvaluatedAt)
	})

	start := query.Offset
	if start > len(results) {
		return []*evidence.DecisionRecord{}, nil
	}
	results = results[start:]

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	if query == nil {
		query = &evidence.Query{}
	}

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

// Delete removes records matching the query filters.
// When Limit is set, only the oldest Limit matching records are removed.
func (s *MemoryStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	if query == nil {
		query = &evidence.Query{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*evidence.DecisionRecord
	for _, record := range s.records {
		if matchesQuery(record, query) {
			matched = append(matched, record)
		}
	}

	if query.Limit > 0 && query.Limit < len(matched) {
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].EvaluatedAt.Before(matched[j].EvaluatedAt)
		})
		matched = matched[:query.Limit]
	}

	for _, record := range matched {
		delete(s.records, record.ID)
	}
	return int64(len(matched)), nil
}

// Close drops all records. Store fails afterwards.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// GetByID retrieves a single record by ID, or nil.
func (s *MemoryStorage) GetByID(id string) *evidence.DecisionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	return copyRecord(record)
}

// Size returns the number of records held.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *evidence.DecisionRecord, query *evidence.Query) bool {
	if query.StartTime != nil && record.EvaluatedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.EvaluatedAt.After(*query.EndTime) {
		return false
	}
	if query.JobID != "" && record.JobID != query.JobID {
		return false
	}
	if query.Username != "" && record.Username != query.Username {
		return false
	}
	if query.PrinterName != "" && record.PrinterName != query.PrinterName {
		return false
	}
	if query.Disposition != "" && record.Disposition != query.Disposition {
		return false
	}
	if query.RedirectTarget != "" && record.RedirectTarget != query.RedirectTarget {
		return false
	}
	if query.HasFailures != nil && record.HasFailures() != *query.HasFailures {
		return false
	}
	if query.Rule != "" {
		found := false
		for _, r := range record.Rules {
			if r.Rule == query.Rule && r.Matched {
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

func copyRecord(record *evidence.DecisionRecord) *evidence.DecisionRecord {
	c := *record
	if record.Rules != nil {
		c.Rules = make([]evidence.RuleOutcome, len(record.Rules))
		for i, r := range record.Rules {
			r.Actions = append([]string(nil), r.Actions...)
			c.Rules[i] = r
		}
	}
	if record.FailedActions != nil {
		c.FailedActions = append([]evidence.ActionFailure(nil), record.FailedActions...)
	}
	return &c
}
