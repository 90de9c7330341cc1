// Package cache implements the product cache application service: refreshing
// the local snapshot from the upstream catalog and resolving line items
// against it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
)

// Options tunes the refresh retry policy and staleness reporting.
type Options struct {
	// RetryAttempts is the total number of upstream fetch attempts per refresh.
	RetryAttempts int
	// RetryBackoff is the delay before the first retry; it doubles per attempt.
	RetryBackoff time.Duration
	// StaleAfter is the snapshot age beyond which Status reports staleness.
	StaleAfter time.Duration
}

func (o *Options) applyDefaults() {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 24 * time.Hour
	}
}

// StatusReport is the operator-facing cache status.
type StatusReport struct {
	catalog.Status
	Stale bool
}

// Service coordinates cache refreshes and lookups. Refreshes build the new
// snapshot in full before the store swaps it in, so a failed refresh leaves
// the previous snapshot untouched.
type Service struct {
	client catalog.Client
	store  catalog.SnapshotStore
	logger *zap.Logger
	opts   Options

	now func() time.Time
}

// NewService creates a cache service.
func NewService(client catalog.Client, store catalog.SnapshotStore, logger *zap.Logger, opts Options) *Service {
	opts.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger.Named("cache"),
		opts:   opts,
		now:    time.Now,
	}
}

// Refresh fetches the full catalog from the upstream and replaces the stored
// snapshot. Transient network failures are retried with exponential backoff;
// upstream data errors are not, since a retry cannot fix a malformed feed.
func (s *Service) Refresh(ctx context.Context) (*catalog.CacheSnapshot, error) {
	records, err := s.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.Replace(ctx, records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cache refreshed",
		zap.Uint64("generation", snapshot.Generation()),
		zap.Int("products", snapshot.Count()))
	return snapshot, nil
}

func (s *Service) fetchWithRetry(ctx context.Context) ([]catalog.ProductRecord, error) {
	backoff := s.opts.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		records, err := s.client.FetchAll(ctx)
		if err == nil {
			return records, nil
		}
		lastErr = err

		if !errors.Is(err, shared.ErrNetwork) {
			return nil, err
		}
		if attempt == s.opts.RetryAttempts {
			break
		}

		s.logger.Warn("catalog fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: refresh cancelled: %v", shared.ErrNetwork, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("catalog fetch failed after %d attempts: %w", s.opts.RetryAttempts, lastErr)
}

// Snapshot returns the current cache snapshot. A cache that has never been
// refreshed is reported as not found.
func (s *Service) Snapshot(ctx context.Context) (*catalog.CacheSnapshot, error) {
	snapshot, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: product cache is empty, run 'cache refresh' first", shared.ErrNotFound)
	}
	return snapshot, nil
}

// Resolve maps line items to their cached product records, preserving item
// order. Any unresolved article number aborts the whole resolution; the error
// lists every missing article, not just the first.
func (s *Service) Resolve(ctx context.Context, items []newsletter.LineItem) ([]catalog.ProductRecord, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]catalog.ProductRecord, 0, len(items))
	var missing []string
	seen := make(map[string]bool)
	for _, item := range items {
		record, ok := snapshot.Lookup(item.ArticleNumber)
		if !ok {
			if !seen[item.ArticleNumber] {
				missing = append(missing, item.ArticleNumber)
				seen[item.ArticleNumber] = true
			}
			continue
		}
		records = append(records, record)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: articles not in cache: %s", shared.ErrNotFound, strings.Join(missing, ", "))
	}
	return records, nil
}

// Status reports snapshot metadata plus a staleness flag. Staleness informs
// the operator but never blocks generation.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	status, err := s.store.Status(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{
		Status: status,
		Stale:  status.IsStale(s.opts.StaleAfter, s.now()),
	}, nil
}
