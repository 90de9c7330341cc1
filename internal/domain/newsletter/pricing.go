package newsletter

import (
	"github.com/shopspring/decimal"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/shared/valueobject"
)

// PricedItem is a line item resolved against the cache and priced.
// Each monetary value is rounded exactly once, at the line level, so repeated
// runs with identical inputs reproduce identical totals.
type PricedItem struct {
	Product   catalog.ProductRecord
	Item      LineItem
	UnitPrice valueobject.Money
	// DiscountedUnit is the unit price after the line discount, rounded to
	// cents for display only. LineTotal is never derived from it.
	DiscountedUnit valueobject.Money
	// LineTotal is unit price times quantity times (1 - discount/100),
	// rounded to cents once.
	LineTotal valueobject.Money
	// LineSaved is the discount amount of the line, rounded to cents.
	LineSaved valueobject.Money
}

// Totals aggregates the priced items of one generation run.
type Totals struct {
	ProductCount  int
	GrandTotal    valueobject.Money
	DiscountTotal valueobject.Money
}

// PriceItem computes the discounted unit price, line total, and saved amount
// for a resolved line item. The discounted unit stays unrounded until the
// quantity multiplication, so each line rounds exactly once.
func PriceItem(product catalog.ProductRecord, item LineItem) PricedItem {
	unit := product.UnitPrice()
	discounted := unit.ApplyDiscount(decimal.NewFromInt(int64(item.Discount)))
	quantity := int64(item.Quantity)
	saved := valueobject.ZeroEUR()
	if item.Discount > 0 {
		saved = unit.MustSubtract(discounted).MultiplyByInt(quantity).Round(2)
	}
	return PricedItem{
		Product:        product,
		Item:           item,
		UnitPrice:      unit.Round(2),
		DiscountedUnit: discounted.Round(2),
		LineTotal:      discounted.MultiplyByInt(quantity).Round(2),
		LineSaved:      saved,
	}
}

// SumTotals sums already-rounded line totals into the run totals. The
// discount total is the saved amount across all discounted lines.
func SumTotals(items []PricedItem) Totals {
	grand := valueobject.ZeroEUR()
	discount := valueobject.ZeroEUR()
	for _, priced := range items {
		grand = grand.MustAdd(priced.LineTotal)
		discount = discount.MustAdd(priced.LineSaved)
	}
	return Totals{
		ProductCount:  len(items),
		GrandTotal:    grand,
		DiscountTotal: discount,
	}
}
