package newsletter

import (
	"context"
	"time"

	"github.com/mtp/newsletter/internal/domain/shared/valueobject"
)

// RunStatus is the terminal outcome of a generation attempt.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the append-only ledger entry for one generation attempt.
// Exactly one record exists per attempt, success or failure, and a record is
// never mutated after it was appended.
type RunRecord struct {
	ID           int64
	Filename     string
	TemplateName string
	Language     string
	ValidityDate string

	// Items are the requested line items, verbatim.
	Items         []LineItem
	ProductCount  int
	GrandTotal    valueobject.Money
	DiscountTotal valueobject.Money

	HTMLPath  string
	PDFPath   string
	OutputDir string

	Status      RunStatus
	ErrorDetail string

	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time
}

// Succeeded reports whether the run completed without error.
func (r *RunRecord) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// RunLedger persists run records. Appends are serialized at the storage
// layer so concurrent process invocations never collide on an identifier.
type RunLedger interface {
	// Append assigns the next run identifier, durably persists the record,
	// and returns the assigned identifier. A persistence failure is
	// reported, never swallowed.
	Append(ctx context.Context, record *RunRecord) (int64, error)
	// List returns up to limit records, most recent first.
	List(ctx context.Context, limit int) ([]RunRecord, error)
	// Get returns the record with the given identifier or shared.ErrNotFound.
	Get(ctx context.Context, runID int64) (*RunRecord, error)
}
