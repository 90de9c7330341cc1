package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/shared"
	"github.com/mtp/newsletter/internal/infrastructure/persistence/models"
)

// insertBatchSize bounds the number of rows per bulk insert
const insertBatchSize = 200

// GormSnapshotStore implements catalog.SnapshotStore using GORM. The swap is
// transactional: the new generation's rows and its snapshot marker commit
// together, so concurrent readers see either the previous generation or the
// new one, never a mix.
type GormSnapshotStore struct {
	db *gorm.DB
}

// NewGormSnapshotStore creates a new GormSnapshotStore
func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

// Replace persists the records as a new generation and makes it current.
// On any error the transaction rolls back and the previous snapshot stays
// untouched.
func (s *GormSnapshotStore) Replace(ctx context.Context, records []catalog.ProductRecord) (*catalog.CacheSnapshot, error) {
	refreshedAt := time.Now()

	var generation uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current uint64
		if err := tx.Model(&models.CacheSnapshotModel{}).
			Select("COALESCE(MAX(generation), 0)").
			Scan(&current).Error; err != nil {
			return fmt.Errorf("determining current generation: %w", err)
		}
		generation = current + 1

		rows := make([]*models.CachedProductModel, 0, len(records))
		for _, record := range records {
			if err := record.Validate(); err != nil {
				return err
			}
			rows = append(rows, models.CachedProductModelFromDomain(generation, record))
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("inserting snapshot records: %w", err)
		}

		marker := &models.CacheSnapshotModel{
			Generation:  generation,
			RefreshedAt: refreshedAt,
			RecordCount: len(records),
		}
		if err := tx.Create(marker).Error; err != nil {
			return fmt.Errorf("marking snapshot current: %w", err)
		}

		// Prune superseded generations; the new marker is already committed
		// within this transaction, so readers can never land on a gap.
		if err := tx.Where("generation < ?", generation).
			Delete(&models.CachedProductModel{}).Error; err != nil {
			return fmt.Errorf("pruning old snapshot records: %w", err)
		}
		if err := tx.Where("generation < ?", generation).
			Delete(&models.CacheSnapshotModel{}).Error; err != nil {
			return fmt.Errorf("pruning old snapshot markers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return catalog.NewCacheSnapshot(generation, refreshedAt, records)
}

// Current loads the latest snapshot, or (nil, nil) when no refresh has ever
// completed.
func (s *GormSnapshotStore) Current(ctx context.Context) (*catalog.CacheSnapshot, error) {
	var marker models.CacheSnapshotModel
	if err := s.db.WithContext(ctx).Order("generation DESC").First(&marker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rows []models.CachedProductModel
	if err := s.db.WithContext(ctx).
		Where("generation = ?", marker.Generation).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]catalog.ProductRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return catalog.NewCacheSnapshot(marker.Generation, marker.RefreshedAt, records)
}

// Status reports snapshot metadata without loading the record rows.
func (s *GormSnapshotStore) Status(ctx context.Context) (catalog.Status, error) {
	var marker models.CacheSnapshotModel
	if err := s.db.WithContext(ctx).Order("generation DESC").First(&marker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Status{}, nil
		}
		return catalog.Status{}, err
	}
	return catalog.Status{
		HasSnapshot: true,
		Generation:  marker.Generation,
		RefreshedAt: marker.RefreshedAt,
		RecordCount: marker.RecordCount,
	}, nil
}

// Ensure the store satisfies the domain contract
var _ catalog.SnapshotStore = (*GormSnapshotStore)(nil)

// wrapPersistence tags storage failures with the domain persistence error
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
}
