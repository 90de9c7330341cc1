package catalog

import (
	"fmt"
	"time"

	"github.com/mtp/newsletter/internal/domain/shared"
)

// CacheSnapshot is a fully-populated, immutable view of the product cache at
// a point in time. A snapshot is either completely present or absent: it is
// built in isolation during a refresh and swapped in atomically, so readers
// never observe a half-populated record set.
type CacheSnapshot struct {
	generation  uint64
	refreshedAt time.Time
	records     map[string]ProductRecord
}

// NewCacheSnapshot builds a snapshot from a record slice, validating every
// record. Duplicate article numbers are rejected so a snapshot can never hold
// two records under the same key.
func NewCacheSnapshot(generation uint64, refreshedAt time.Time, records []ProductRecord) (*CacheSnapshot, error) {
	byArticle := make(map[string]ProductRecord, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, err
		}
		if _, exists := byArticle[records[i].ArticleNumber]; exists {
			return nil, fmt.Errorf("%w: duplicate article number %s in snapshot", shared.ErrValidation, records[i].ArticleNumber)
		}
		byArticle[records[i].ArticleNumber] = records[i]
	}
	return &CacheSnapshot{
		generation:  generation,
		refreshedAt: refreshedAt,
		records:     byArticle,
	}, nil
}

// Generation returns the monotonically increasing snapshot counter.
func (s *CacheSnapshot) Generation() uint64 {
	return s.generation
}

// RefreshedAt returns when the snapshot was built.
func (s *CacheSnapshot) RefreshedAt() time.Time {
	return s.refreshedAt
}

// Count returns the number of records in the snapshot.
func (s *CacheSnapshot) Count() int {
	return len(s.records)
}

// Lookup returns the record for the given article number. The boolean is
// false when the article is not part of the snapshot.
func (s *CacheSnapshot) Lookup(articleNumber string) (ProductRecord, bool) {
	record, ok := s.records[articleNumber]
	return record, ok
}

// Records returns all records in the snapshot. The returned slice is a copy;
// mutating it does not affect the snapshot.
func (s *CacheSnapshot) Records() []ProductRecord {
	out := make([]ProductRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out
}

// Status describes the current cache state for operator reporting. It informs
// but never blocks generation.
type Status struct {
	HasSnapshot bool
	Generation  uint64
	RefreshedAt time.Time
	RecordCount int
}

// IsStale reports whether the snapshot is older than the given threshold.
// An absent snapshot is always stale.
func (s Status) IsStale(threshold time.Duration, now time.Time) bool {
	if !s.HasSnapshot {
		return true
	}
	return now.Sub(s.RefreshedAt) > threshold
}
