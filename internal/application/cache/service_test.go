package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
)

// mockClient returns queued responses in order, one per FetchAll call.
type mockClient struct {
	responses []fetchResponse
	calls     int
}

type fetchResponse struct {
	records []catalog.ProductRecord
	err     error
}

func (c *mockClient) FetchAll(ctx context.Context) ([]catalog.ProductRecord, error) {
	if c.calls >= len(c.responses) {
		return nil, fmt.Errorf("%w: unexpected fetch call %d", shared.ErrNetwork, c.calls)
	}
	resp := c.responses[c.calls]
	c.calls++
	return resp.records, resp.err
}

type mockSnapshotStore struct {
	snapshot   *catalog.CacheSnapshot
	replaceErr error
}

func (s *mockSnapshotStore) Replace(ctx context.Context, records []catalog.ProductRecord) (*catalog.CacheSnapshot, error) {
	if s.replaceErr != nil {
		return nil, s.replaceErr
	}
	generation := uint64(1)
	if s.snapshot != nil {
		generation = s.snapshot.Generation() + 1
	}
	snapshot, err := catalog.NewCacheSnapshot(generation, time.Now(), records)
	if err != nil {
		return nil, err
	}
	s.snapshot = snapshot
	return snapshot, nil
}

func (s *mockSnapshotStore) Current(ctx context.Context) (*catalog.CacheSnapshot, error) {
	return s.snapshot, nil
}

func (s *mockSnapshotStore) Status(ctx context.Context) (catalog.Status, error) {
	if s.snapshot == nil {
		return catalog.Status{}, nil
	}
	return catalog.Status{
		HasSnapshot: true,
		Generation:  s.snapshot.Generation(),
		RefreshedAt: s.snapshot.RefreshedAt(),
		RecordCount: s.snapshot.Count(),
	}, nil
}

func record(article string) catalog.ProductRecord {
	return catalog.ProductRecord{ArticleNumber: article, NameDE: "Platte " + article}
}

func fastOptions() Options {
	return Options{RetryAttempts: 3, RetryBackoff: time.Millisecond, StaleAfter: 24 * time.Hour}
}

func TestRefreshStoresSnapshot(t *testing.T) {
	client := &mockClient{responses: []fetchResponse{
		{records: []catalog.ProductRecord{record("A-1"), record("A-2")}},
	}}
	store := &mockSnapshotStore{}
	service := NewService(client, store, zap.NewNop(), fastOptions())

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snapshot.Generation())
	assert.Equal(t, 2, snapshot.Count())
	assert.Equal(t, 1, client.calls)
}

func TestRefreshRetriesNetworkErrors(t *testing.T) {
	client := &mockClient{responses: []fetchResponse{
		{err: fmt.Errorf("%w: connection refused", shared.ErrNetwork)},
		{err: fmt.Errorf("%w: connection refused", shared.ErrNetwork)},
		{records: []catalog.ProductRecord{record("A-1")}},
	}}
	store := &mockSnapshotStore{}
	service := NewService(client, store, zap.NewNop(), fastOptions())

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, 1, snapshot.Count())
}

func TestRefreshGivesUpAfterConfiguredAttempts(t *testing.T) {
	netErr := fmt.Errorf("%w: connection refused", shared.ErrNetwork)
	client := &mockClient{responses: []fetchResponse{{err: netErr}, {err: netErr}, {err: netErr}}}
	store := &mockSnapshotStore{snapshot: mustSnapshot(t, 7, record("KEEP"))}
	service := NewService(client, store, zap.NewNop(), fastOptions())

	_, err := service.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNetwork))
	assert.Equal(t, 3, client.calls)

	// Previous snapshot survives the failed refresh
	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), current.Generation())
}

func TestRefreshDoesNotRetryUpstreamErrors(t *testing.T) {
	client := &mockClient{responses: []fetchResponse{
		{err: fmt.Errorf("%w: feed contained no products", shared.ErrUpstream)},
	}}
	service := NewService(client, &mockSnapshotStore{}, zap.NewNop(), fastOptions())

	_, err := service.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUpstream))
	assert.Equal(t, 1, client.calls)
}

func TestSnapshotEmptyCache(t *testing.T) {
	service := NewService(&mockClient{}, &mockSnapshotStore{}, zap.NewNop(), fastOptions())

	_, err := service.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Contains(t, err.Error(), "cache refresh")
}

func TestResolvePreservesItemOrder(t *testing.T) {
	store := &mockSnapshotStore{snapshot: mustSnapshot(t, 1, record("A-1"), record("A-2"), record("A-3"))}
	service := NewService(&mockClient{}, store, zap.NewNop(), fastOptions())

	records, err := service.Resolve(context.Background(), []newsletter.LineItem{
		{ArticleNumber: "A-3", Quantity: 1},
		{ArticleNumber: "A-1", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A-3", records[0].ArticleNumber)
	assert.Equal(t, "A-1", records[1].ArticleNumber)
}

func TestResolveReportsAllMissingArticles(t *testing.T) {
	store := &mockSnapshotStore{snapshot: mustSnapshot(t, 1, record("A-1"))}
	service := NewService(&mockClient{}, store, zap.NewNop(), fastOptions())

	_, err := service.Resolve(context.Background(), []newsletter.LineItem{
		{ArticleNumber: "GONE-2", Quantity: 1},
		{ArticleNumber: "A-1", Quantity: 1},
		{ArticleNumber: "GONE-1", Quantity: 1},
		{ArticleNumber: "GONE-1", Quantity: 2},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Contains(t, err.Error(), "GONE-1, GONE-2")
}

func TestStatusStaleness(t *testing.T) {
	store := &mockSnapshotStore{}
	service := NewService(&mockClient{}, store, zap.NewNop(), fastOptions())

	report, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasSnapshot)
	assert.True(t, report.Stale)

	store.snapshot = mustSnapshot(t, 1, record("A-1"))
	report, err = service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasSnapshot)
	assert.False(t, report.Stale)
	assert.Equal(t, 1, report.RecordCount)

	// Age the clock past the staleness threshold
	service.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	report, err = service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Stale)
}

func mustSnapshot(t *testing.T, generation uint64, records ...catalog.ProductRecord) *catalog.CacheSnapshot {
	t.Helper()
	snapshot, err := catalog.NewCacheSnapshot(generation, time.Now(), records)
	require.NoError(t, err)
	return snapshot
}
