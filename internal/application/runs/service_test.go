package runs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
)

type stubLedger struct {
	records   []newsletter.RunRecord
	lastLimit int
}

func (l *stubLedger) Append(ctx context.Context, record *newsletter.RunRecord) (int64, error) {
	record.ID = int64(len(l.records) + 1)
	l.records = append(l.records, *record)
	return record.ID, nil
}

func (l *stubLedger) List(ctx context.Context, limit int) ([]newsletter.RunRecord, error) {
	l.lastLimit = limit
	if limit > len(l.records) {
		limit = len(l.records)
	}
	out := make([]newsletter.RunRecord, 0, limit)
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

func (l *stubLedger) Get(ctx context.Context, runID int64) (*newsletter.RunRecord, error) {
	for i := range l.records {
		if l.records[i].ID == runID {
			return &l.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: run %d", shared.ErrNotFound, runID)
}

func seededLedger(count int) *stubLedger {
	ledger := &stubLedger{}
	for i := 0; i < count; i++ {
		ledger.Append(context.Background(), &newsletter.RunRecord{
			TemplateName: "classic",
			Language:     "de",
			Status:       newsletter.RunStatusSucceeded,
		})
	}
	return ledger
}

func TestListAppliesDefaultLimit(t *testing.T) {
	ledger := seededLedger(3)
	service := NewService(ledger)

	records, err := service.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, DefaultListLimit, ledger.lastLimit)
}

func TestListMostRecentFirst(t *testing.T) {
	ledger := seededLedger(5)
	service := NewService(ledger)

	records, err := service.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(5), records[0].ID)
	assert.Equal(t, int64(4), records[1].ID)
}

func TestListRejectsNegativeLimit(t *testing.T) {
	service := NewService(seededLedger(1))

	_, err := service.List(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestGet(t *testing.T) {
	service := NewService(seededLedger(2))

	record, err := service.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.ID)

	_, err = service.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = service.Get(context.Background(), 0)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
