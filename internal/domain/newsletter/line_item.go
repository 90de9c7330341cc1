// Package newsletter contains the generation domain: requested line items,
// deterministic pricing, and the run ledger records.
package newsletter

import (
	"fmt"

	"github.com/mtp/newsletter/internal/domain/shared"
)

// LineItem is one requested newsletter position as supplied by the operator.
// Field names are a compatibility contract with operator-authored JSON files.
type LineItem struct {
	ArticleNumber string `json:"article_number" validate:"required"`
	Discount      int    `json:"discount" validate:"gte=0,lte=100"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
}

// Validate checks the line item invariants: a non-empty article number, a
// discount between 0 and 100 inclusive, and a positive quantity.
func (i LineItem) Validate() error {
	if i.ArticleNumber == "" {
		return fmt.Errorf("%w: line item missing article number", shared.ErrValidation)
	}
	if i.Discount < 0 || i.Discount > 100 {
		return fmt.Errorf("%w: article %s has invalid discount %d (must be 0-100)", shared.ErrValidation, i.ArticleNumber, i.Discount)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: article %s has invalid quantity %d (must be positive)", shared.ErrValidation, i.ArticleNumber, i.Quantity)
	}
	return nil
}

// ValidateLineItems checks a whole request: the list must be non-empty and
// every item valid. The first violation is returned.
func ValidateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no line items provided", shared.ErrValidation)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
