package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductRecordUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		record   ProductRecord
		expected string
	}{
		{
			name:     "dealer price wins",
			record:   ProductRecord{ArticleNumber: "A1", PriceDealer: dec("9.99"), PriceRetailNet: dec("19.99")},
			expected: "9.99",
		},
		{
			name:     "retail net when dealer missing",
			record:   ProductRecord{ArticleNumber: "A1", PriceRetailNet: dec("19.99"), PriceRetailGross: dec("23.79")},
			expected: "19.99",
		},
		{
			name:     "zero tiers are skipped",
			record:   ProductRecord{ArticleNumber: "A1", PriceDealer: dec("0"), PriceRetailVAT: dec("3.80")},
			expected: "3.80",
		},
		{
			name:     "no price at all",
			record:   ProductRecord{ArticleNumber: "A1"},
			expected: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.UnitPrice().StringFixed(2))
		})
	}
}

func TestProductRecordValidate(t *testing.T) {
	valid := ProductRecord{ArticleNumber: "A1", PriceDealer: dec("1.00")}
	assert.NoError(t, valid.Validate())

	missing := ProductRecord{}
	assert.Error(t, missing.Validate())

	negative := ProductRecord{ArticleNumber: "A1", PriceRetailNet: dec("-0.01")}
	assert.Error(t, negative.Validate())
}

func TestProductRecordLocalization(t *testing.T) {
	record := ProductRecord{ArticleNumber: "A1", NameDE: "Platte", DescriptionEN: "english only"}

	assert.Equal(t, "Platte", record.LocalizedName(LanguageGerman))
	// Missing English name falls back to German
	assert.Equal(t, "Platte", record.LocalizedName(LanguageEnglish))
	// Missing German description falls back to English
	assert.Equal(t, "english only", record.LocalizedDescription(LanguageGerman))
}

func TestProductRecordPreferredImageURL(t *testing.T) {
	record := ProductRecord{
		ArticleNumber:   "LP123",
		MainImageURL:    "https://img.example/main.jpg",
		DetailImageURLs: []string{"https://img.example/other.jpg", "https://img.example/LP123_front.jpg"},
	}
	assert.Equal(t, "https://img.example/LP123_front.jpg", record.PreferredImageURL())

	record.DetailImageURLs = []string{"https://img.example/other.jpg"}
	assert.Equal(t, "https://img.example/other.jpg", record.PreferredImageURL())

	record.DetailImageURLs = nil
	assert.Equal(t, "https://img.example/main.jpg", record.PreferredImageURL())
}

func TestNewCacheSnapshot(t *testing.T) {
	records := []ProductRecord{
		{ArticleNumber: "A1", PriceDealer: dec("1.00")},
		{ArticleNumber: "A2", PriceDealer: dec("2.00")},
	}
	snap, err := NewCacheSnapshot(3, time.Now(), records)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), snap.Generation())
	assert.Equal(t, 2, snap.Count())

	record, ok := snap.Lookup("A2")
	assert.True(t, ok)
	assert.Equal(t, "A2", record.ArticleNumber)

	_, ok = snap.Lookup("missing")
	assert.False(t, ok)
}

func TestNewCacheSnapshotRejectsDuplicates(t *testing.T) {
	records := []ProductRecord{
		{ArticleNumber: "A1"},
		{ArticleNumber: "A1"},
	}
	_, err := NewCacheSnapshot(1, time.Now(), records)
	assert.Error(t, err)
}

func TestStatusIsStale(t *testing.T) {
	now := time.Now()

	empty := Status{}
	assert.True(t, empty.IsStale(time.Hour, now))

	fresh := Status{HasSnapshot: true, RefreshedAt: now.Add(-10 * time.Minute)}
	assert.False(t, fresh.IsStale(time.Hour, now))

	old := Status{HasSnapshot: true, RefreshedAt: now.Add(-2 * time.Hour)}
	assert.True(t, old.IsStale(time.Hour, now))
}
