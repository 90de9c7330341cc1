// Package catalog contains the product catalog domain: records fetched from
// the upstream MTP feed and the immutable cache snapshots built from them.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtp/newsletter/internal/domain/shared"
	"github.com/mtp/newsletter/internal/domain/shared/valueobject"
)

// Language codes supported by the newsletter templates and locale fields.
const (
	LanguageGerman  = "de"
	LanguageEnglish = "en"
)

// ProductRecord is one product as cached from the upstream catalog.
// Records are created or overwritten only during a cache refresh and are
// immutable between refreshes.
type ProductRecord struct {
	ArticleNumber string

	NameDE   string
	NameEN   string
	Category string

	// Price tiers as delivered by the upstream feed. A nil tier means the
	// feed carried no usable value for it.
	PriceDealer      *decimal.Decimal
	PriceRetailNet   *decimal.Decimal
	PriceRetailVAT   *decimal.Decimal
	PriceRetailGross *decimal.Decimal

	DescriptionDE string
	DescriptionEN string

	Artist      string
	Label       string
	Genre       string
	ReleaseDate string

	MainImageURL    string
	DetailImageURLs []string
	InventoryTotal  int

	LastUpdated time.Time
}

// Validate checks the record invariants: a non-empty article number and no
// negative price tier.
func (p *ProductRecord) Validate() error {
	if p.ArticleNumber == "" {
		return fmt.Errorf("%w: product record has empty article number", shared.ErrValidation)
	}
	for _, tier := range []*decimal.Decimal{p.PriceDealer, p.PriceRetailNet, p.PriceRetailVAT, p.PriceRetailGross} {
		if tier != nil && tier.IsNegative() {
			return fmt.Errorf("%w: product %s has negative price", shared.ErrValidation, p.ArticleNumber)
		}
	}
	return nil
}

// UnitPrice selects the effective unit price following the upstream tier
// order: dealer, retail net, retail VAT, retail gross. Falls back to zero
// when no tier is present.
func (p *ProductRecord) UnitPrice() valueobject.Money {
	for _, tier := range []*decimal.Decimal{p.PriceDealer, p.PriceRetailNet, p.PriceRetailVAT, p.PriceRetailGross} {
		if tier != nil && !tier.IsZero() {
			return valueobject.NewMoneyEUR(*tier)
		}
	}
	return valueobject.ZeroEUR()
}

// LocalizedName returns the product name for the given language, falling
// back to the other language when one side is empty.
func (p *ProductRecord) LocalizedName(language string) string {
	de := p.NameDE
	en := p.NameEN
	if de == "" {
		de = en
	}
	if en == "" {
		en = de
	}
	if language == LanguageGerman {
		return de
	}
	return en
}

// LocalizedDescription returns the long description for the given language
// with the same fallback behavior as LocalizedName.
func (p *ProductRecord) LocalizedDescription(language string) string {
	de := p.DescriptionDE
	en := p.DescriptionEN
	if de == "" {
		de = en
	}
	if en == "" {
		en = de
	}
	if language == LanguageGerman {
		return de
	}
	return en
}

// PreferredImageURL picks the detail image whose URL contains the article
// number, else the first detail image, else the main product image.
func (p *ProductRecord) PreferredImageURL() string {
	for _, url := range p.DetailImageURLs {
		if p.ArticleNumber != "" && strings.Contains(url, p.ArticleNumber) {
			return url
		}
	}
	if len(p.DetailImageURLs) > 0 {
		return p.DetailImageURLs[0]
	}
	return p.MainImageURL
}
