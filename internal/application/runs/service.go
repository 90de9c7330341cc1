// Package runs exposes the append-only run ledger for operator inspection.
package runs

import (
	"context"
	"fmt"

	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
)

// DefaultListLimit is used when the caller does not specify a limit.
const DefaultListLimit = 20

// Service reads run records. Records are never modified or deleted here; the
// ledger only grows.
type Service struct {
	ledger newsletter.RunLedger
}

// NewService creates a runs service.
func NewService(ledger newsletter.RunLedger) *Service {
	return &Service{ledger: ledger}
}

// List returns up to limit records, most recent first. A zero limit uses the
// default; a negative limit is rejected.
func (s *Service) List(ctx context.Context, limit int) ([]newsletter.RunRecord, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", shared.ErrValidation, limit)
	}
	return s.ledger.List(ctx, limit)
}

// Get returns the record with the given identifier.
func (s *Service) Get(ctx context.Context, runID int64) (*newsletter.RunRecord, error) {
	if runID <= 0 {
		return nil, fmt.Errorf("%w: run id must be positive, got %d", shared.ErrValidation, runID)
	}
	return s.ledger.Get(ctx, runID)
}
