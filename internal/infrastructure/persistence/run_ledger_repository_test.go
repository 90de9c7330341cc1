package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
	"github.com/mtp/newsletter/internal/domain/shared/valueobject"
)

func testRun(template string, status newsletter.RunStatus) *newsletter.RunRecord {
	now := time.Now()
	return &newsletter.RunRecord{
		Filename:      "newsletter_de_20260828_120000",
		TemplateName:  template,
		Language:      "de",
		Items:         []newsletter.LineItem{{ArticleNumber: "A1", Discount: 10, Quantity: 2}},
		ProductCount:  1,
		GrandTotal:    valueobject.NewMoneyEUR(decimal.RequireFromString("35.98")),
		DiscountTotal: valueobject.NewMoneyEUR(decimal.RequireFromString("4.00")),
		HTMLPath:      "/tmp/out/newsletter_de_20260828_120000.html",
		OutputDir:     "/tmp/out",
		Status:        status,
		StartedAt:     now.Add(-2 * time.Second),
		FinishedAt:    now,
	}
}

func TestRunLedgerAppendAssignsIdentifiers(t *testing.T) {
	ledger := NewGormRunLedger(setupTestDB(t))
	ctx := context.Background()

	first, err := ledger.Append(ctx, testRun("classic", newsletter.RunStatusSucceeded))
	require.NoError(t, err)
	second, err := ledger.Append(ctx, testRun("classic", newsletter.RunStatusFailed))
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestRunLedgerGet(t *testing.T) {
	ledger := NewGormRunLedger(setupTestDB(t))
	ctx := context.Background()

	record := testRun("classic", newsletter.RunStatusSucceeded)
	id, err := ledger.Append(ctx, record)
	require.NoError(t, err)

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "classic", got.TemplateName)
	assert.Equal(t, newsletter.RunStatusSucceeded, got.Status)
	assert.True(t, got.Succeeded())
	assert.Equal(t, "35.98", got.GrandTotal.StringFixed(2))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A1", got.Items[0].ArticleNumber)

	_, err = ledger.Get(ctx, 9999)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestRunLedgerListOrdering(t *testing.T) {
	ledger := NewGormRunLedger(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := ledger.Append(ctx, testRun(name, newsletter.RunStatusSucceeded))
		require.NoError(t, err)
	}

	records, err := ledger.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].TemplateName)
	assert.Equal(t, "second", records[1].TemplateName)
}

func TestRunLedgerListRejectsNonPositiveLimit(t *testing.T) {
	ledger := NewGormRunLedger(setupTestDB(t))

	_, err := ledger.List(context.Background(), 0)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = ledger.List(context.Background(), -5)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestRunLedgerRecordsFailures(t *testing.T) {
	ledger := NewGormRunLedger(setupTestDB(t))
	ctx := context.Background()

	record := testRun("classic", newsletter.RunStatusFailed)
	record.ErrorDetail = "article A9 not found in cache"
	record.HTMLPath = ""

	id, err := ledger.Append(ctx, record)
	require.NoError(t, err)

	got, err := ledger.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, newsletter.RunStatusFailed, got.Status)
	assert.Equal(t, "article A9 not found in cache", got.ErrorDetail)
	assert.Empty(t, got.HTMLPath)
}
