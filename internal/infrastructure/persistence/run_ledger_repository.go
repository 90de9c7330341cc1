package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
	"github.com/mtp/newsletter/internal/infrastructure/persistence/models"
)

// GormRunLedger implements newsletter.RunLedger using GORM. Identifier
// assignment rides on the autoincrement primary key, so concurrent process
// invocations never collide.
type GormRunLedger struct {
	db *gorm.DB
}

// NewGormRunLedger creates a new GormRunLedger
func NewGormRunLedger(db *gorm.DB) *GormRunLedger {
	return &GormRunLedger{db: db}
}

// Append durably persists the record and returns the assigned identifier.
// Failures are reported as shared.ErrPersistence, never swallowed.
func (r *GormRunLedger) Append(ctx context.Context, record *newsletter.RunRecord) (int64, error) {
	model, err := models.NewsletterRunModelFromDomain(record)
	if err != nil {
		return 0, wrapPersistence(fmt.Errorf("encoding run record: %w", err))
	}
	model.ID = 0 // identifier is assigned by the store
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	}); err != nil {
		return 0, wrapPersistence(fmt.Errorf("appending run record: %w", err))
	}

	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	return model.ID, nil
}

// List returns up to limit records, most recent first.
func (r *GormRunLedger) List(ctx context.Context, limit int) ([]newsletter.RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", shared.ErrValidation, limit)
	}

	var rows []models.NewsletterRunModel
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, wrapPersistence(err)
	}

	records := make([]newsletter.RunRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Get returns the record with the given identifier or shared.ErrNotFound.
func (r *GormRunLedger) Get(ctx context.Context, runID int64) (*newsletter.RunRecord, error) {
	var model models.NewsletterRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: run %d", shared.ErrNotFound, runID)
		}
		return nil, wrapPersistence(err)
	}
	return model.ToDomain(), nil
}

// Ensure the ledger satisfies the domain contract
var _ newsletter.RunLedger = (*GormRunLedger)(nil)
