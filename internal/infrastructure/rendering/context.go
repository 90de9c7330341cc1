// Package rendering turns resolved newsletter data into HTML bytes and,
// optionally, converts that HTML to PDF.
package rendering

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/newsletter"
)

// ProductContext is the per-product view exposed to templates.
type ProductContext struct {
	ArticleNumber string
	Name          string
	NameDE        string
	NameEN        string

	Price           string // discounted unit price, raw fixed-point
	FormattedPrice  string // discounted unit price, locale formatted
	OriginalPrice   string // pre-discount price, only set when discounted
	HasDiscount     bool
	Discount        int
	Quantity        int
	TotalPrice      string
	FormattedTotal  string

	ImageURL    string
	Category    string
	Description string
	Artist      string
	Label       string
	Genre       string
	ReleaseDate string
}

// Context is the root object a newsletter template is executed against.
type Context struct {
	Products      []ProductContext
	TotalProducts int

	TotalAmount            string
	FormattedTotalAmount   string
	TotalDiscountAmount    string
	FormattedTotalDiscount string

	ValidityDate          string
	FormattedValidityDate string

	Language       string
	GenerationDate string
	GenerationTime string
}

// dateLayout returns the display date layout for a language code:
// German DD.MM.YYYY, English ISO.
func dateLayout(lang string) string {
	if lang == catalog.LanguageGerman {
		return "02.01.2006"
	}
	return "2006-01-02"
}

// formatCurrencyValue renders an amount with German digit grouping
// ("1.234,56"), which the newsletter uses in both languages. Amounts are
// split into integer cents so no floating point enters the formatting.
func formatCurrencyValue(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	printer := message.NewPrinter(language.German)
	return sign + printer.Sprintf("%d,%02d", cents/100, cents%100)
}

// BuildContext assembles the template context from priced items and totals.
// now is injected so generation date/time stamps stay testable.
func BuildContext(items []newsletter.PricedItem, totals newsletter.Totals, lang, validityDate string, now time.Time) *Context {
	layout := dateLayout(lang)

	products := make([]ProductContext, 0, len(items))
	for _, priced := range items {
		record := priced.Product
		pc := ProductContext{
			ArticleNumber:  record.ArticleNumber,
			Name:           record.LocalizedName(lang),
			NameDE:         record.LocalizedName(catalog.LanguageGerman),
			NameEN:         record.LocalizedName(catalog.LanguageEnglish),
			Price:          priced.DiscountedUnit.StringFixed(2),
			FormattedPrice: formatCurrencyValue(priced.DiscountedUnit.StringFixed(2)),
			HasDiscount:    priced.Item.Discount > 0,
			Discount:       priced.Item.Discount,
			Quantity:       priced.Item.Quantity,
			TotalPrice:     priced.LineTotal.StringFixed(2),
			FormattedTotal: formatCurrencyValue(priced.LineTotal.StringFixed(2)),
			ImageURL:       record.PreferredImageURL(),
			Category:       record.Category,
			Description:    record.LocalizedDescription(lang),
			Artist:         record.Artist,
			Label:          record.Label,
			Genre:          record.Genre,
			ReleaseDate:    record.ReleaseDate,
		}
		if pc.HasDiscount {
			pc.OriginalPrice = formatCurrencyValue(priced.UnitPrice.StringFixed(2))
		}
		products = append(products, pc)
	}

	// An unspecified validity date means the offer is valid from today
	if validityDate == "" {
		validityDate = now.Format("2006-01-02")
	}
	formattedValidity := validityDate
	if parsed, err := time.Parse("2006-01-02", validityDate); err == nil {
		formattedValidity = parsed.Format(layout)
	}

	return &Context{
		Products:               products,
		TotalProducts:          len(products),
		TotalAmount:            totals.GrandTotal.StringFixed(2),
		FormattedTotalAmount:   formatCurrencyValue(totals.GrandTotal.StringFixed(2)),
		TotalDiscountAmount:    totals.DiscountTotal.StringFixed(2),
		FormattedTotalDiscount: formatCurrencyValue(totals.DiscountTotal.StringFixed(2)),
		ValidityDate:           validityDate,
		FormattedValidityDate:  formattedValidity,
		Language:               lang,
		GenerationDate:         now.Format(layout),
		GenerationTime:         now.Format("15:04"),
	}
}

// KnownGlobalFields lists the top-level template placeholders. The registry
// rejects templates referencing anything outside this set.
func KnownGlobalFields() map[string]bool {
	return map[string]bool{
		"Products":               true,
		"TotalProducts":          true,
		"TotalAmount":            true,
		"FormattedTotalAmount":   true,
		"TotalDiscountAmount":    true,
		"FormattedTotalDiscount": true,
		"ValidityDate":           true,
		"FormattedValidityDate":  true,
		"Language":               true,
		"GenerationDate":         true,
		"GenerationTime":         true,
	}
}

// KnownProductFields lists the placeholders available on each product inside
// a {{range .Products}} block.
func KnownProductFields() map[string]bool {
	return map[string]bool{
		"ArticleNumber":  true,
		"Name":           true,
		"NameDE":         true,
		"NameEN":         true,
		"Price":          true,
		"FormattedPrice": true,
		"OriginalPrice":  true,
		"HasDiscount":    true,
		"Discount":       true,
		"Quantity":       true,
		"TotalPrice":     true,
		"FormattedTotal": true,
		"ImageURL":       true,
		"Category":       true,
		"Description":    true,
		"Artist":         true,
		"Label":          true,
		"Genre":          true,
		"ReleaseDate":    true,
	}
}
