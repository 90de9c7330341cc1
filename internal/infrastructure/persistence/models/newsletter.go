// Package models contains the GORM persistence models and their mapping to
// the domain types.
package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared/valueobject"
)

// CacheSnapshotModel marks one completed refresh. The row with the highest
// generation is the current snapshot; inserting it is the atomic swap.
type CacheSnapshotModel struct {
	Generation  uint64    `gorm:"primaryKey;autoIncrement:false"`
	RefreshedAt time.Time `gorm:"not null"`
	RecordCount int       `gorm:"not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (CacheSnapshotModel) TableName() string {
	return "cache_snapshots"
}

// CachedProductModel is the persistence model for one ProductRecord within a
// snapshot generation.
type CachedProductModel struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Generation    uint64 `gorm:"not null;uniqueIndex:idx_cached_products_gen_article,priority:1"`
	ArticleNumber string `gorm:"type:varchar(50);not null;uniqueIndex:idx_cached_products_gen_article,priority:2"`

	NameDE   string `gorm:"type:varchar(500)"`
	NameEN   string `gorm:"type:varchar(500)"`
	Category string `gorm:"type:varchar(100)"`

	PriceDealer      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PriceRetailNet   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PriceRetailVAT   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PriceRetailGross *decimal.Decimal `gorm:"type:decimal(18,4)"`

	DescriptionDE string `gorm:"type:text"`
	DescriptionEN string `gorm:"type:text"`

	Artist      string `gorm:"type:varchar(200)"`
	Label       string `gorm:"type:varchar(200)"`
	Genre       string `gorm:"type:varchar(100)"`
	ReleaseDate string `gorm:"type:varchar(50)"`

	MainImageURL    string `gorm:"type:varchar(1000)"`
	DetailImageURLs string `gorm:"type:text"` // JSON array
	InventoryTotal  int    `gorm:"not null;default:0"`

	LastUpdated time.Time
}

// TableName returns the table name for GORM
func (CachedProductModel) TableName() string {
	return "cached_products"
}

// ToDomain converts the persistence model to a domain ProductRecord.
func (m *CachedProductModel) ToDomain() catalog.ProductRecord {
	var detailImages []string
	if m.DetailImageURLs != "" {
		_ = json.Unmarshal([]byte(m.DetailImageURLs), &detailImages)
	}
	return catalog.ProductRecord{
		ArticleNumber:    m.ArticleNumber,
		NameDE:           m.NameDE,
		NameEN:           m.NameEN,
		Category:         m.Category,
		PriceDealer:      m.PriceDealer,
		PriceRetailNet:   m.PriceRetailNet,
		PriceRetailVAT:   m.PriceRetailVAT,
		PriceRetailGross: m.PriceRetailGross,
		DescriptionDE:    m.DescriptionDE,
		DescriptionEN:    m.DescriptionEN,
		Artist:           m.Artist,
		Label:            m.Label,
		Genre:            m.Genre,
		ReleaseDate:      m.ReleaseDate,
		MainImageURL:     m.MainImageURL,
		DetailImageURLs:  detailImages,
		InventoryTotal:   m.InventoryTotal,
		LastUpdated:      m.LastUpdated,
	}
}

// CachedProductModelFromDomain creates a persistence model from a domain
// ProductRecord for the given snapshot generation.
func CachedProductModelFromDomain(generation uint64, record catalog.ProductRecord) *CachedProductModel {
	detailImages := "[]"
	if data, err := json.Marshal(record.DetailImageURLs); err == nil {
		detailImages = string(data)
	}
	return &CachedProductModel{
		Generation:       generation,
		ArticleNumber:    record.ArticleNumber,
		NameDE:           record.NameDE,
		NameEN:           record.NameEN,
		Category:         record.Category,
		PriceDealer:      record.PriceDealer,
		PriceRetailNet:   record.PriceRetailNet,
		PriceRetailVAT:   record.PriceRetailVAT,
		PriceRetailGross: record.PriceRetailGross,
		DescriptionDE:    record.DescriptionDE,
		DescriptionEN:    record.DescriptionEN,
		Artist:           record.Artist,
		Label:            record.Label,
		Genre:            record.Genre,
		ReleaseDate:      record.ReleaseDate,
		MainImageURL:     record.MainImageURL,
		DetailImageURLs:  detailImages,
		InventoryTotal:   record.InventoryTotal,
		LastUpdated:      record.LastUpdated,
	}
}

// NewsletterRunModel is the persistence model for one RunRecord.
type NewsletterRunModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Filename     string `gorm:"type:varchar(255);not null"`
	TemplateName string `gorm:"type:varchar(255);not null"`
	Language     string `gorm:"type:varchar(5);not null"`
	ValidityDate string `gorm:"type:varchar(50)"`

	Items         string          `gorm:"type:text;not null"` // JSON array of line items
	ProductCount  int             `gorm:"not null;default:0"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	HTMLPath  string `gorm:"type:varchar(1000)"`
	PDFPath   string `gorm:"type:varchar(1000)"`
	OutputDir string `gorm:"type:varchar(1000)"`

	Status      string `gorm:"type:varchar(20);not null"`
	ErrorDetail string `gorm:"type:text"`

	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
}

// TableName returns the table name for GORM
func (NewsletterRunModel) TableName() string {
	return "newsletter_runs"
}

// ToDomain converts the persistence model to a domain RunRecord.
func (m *NewsletterRunModel) ToDomain() *newsletter.RunRecord {
	var items []newsletter.LineItem
	if m.Items != "" {
		_ = json.Unmarshal([]byte(m.Items), &items)
	}
	return &newsletter.RunRecord{
		ID:            m.ID,
		Filename:      m.Filename,
		TemplateName:  m.TemplateName,
		Language:      m.Language,
		ValidityDate:  m.ValidityDate,
		Items:         items,
		ProductCount:  m.ProductCount,
		GrandTotal:    valueobject.NewMoneyEUR(m.GrandTotal),
		DiscountTotal: valueobject.NewMoneyEUR(m.DiscountTotal),
		HTMLPath:      m.HTMLPath,
		PDFPath:       m.PDFPath,
		OutputDir:     m.OutputDir,
		Status:        newsletter.RunStatus(m.Status),
		ErrorDetail:   m.ErrorDetail,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		CreatedAt:     m.CreatedAt,
	}
}

// NewsletterRunModelFromDomain creates a persistence model from a domain
// RunRecord.
func NewsletterRunModelFromDomain(record *newsletter.RunRecord) (*NewsletterRunModel, error) {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return nil, err
	}
	return &NewsletterRunModel{
		ID:            record.ID,
		Filename:      record.Filename,
		TemplateName:  record.TemplateName,
		Language:      record.Language,
		ValidityDate:  record.ValidityDate,
		Items:         string(items),
		ProductCount:  record.ProductCount,
		GrandTotal:    record.GrandTotal.Amount(),
		DiscountTotal: record.DiscountTotal.Amount(),
		HTMLPath:      record.HTMLPath,
		PDFPath:       record.PDFPath,
		OutputDir:     record.OutputDir,
		Status:        string(record.Status),
		ErrorDetail:   record.ErrorDetail,
		StartedAt:     record.StartedAt,
		FinishedAt:    record.FinishedAt,
		CreatedAt:     record.CreatedAt,
	}, nil
}
