package generation

import (
	"time"

	"github.com/mtp/newsletter/internal/domain/newsletter"
)

// Request describes one newsletter generation run.
type Request struct {
	TemplateName string `validate:"required"`
	Language     string `validate:"required,oneof=de en"`
	// ValidityDate is an optional ISO date shown in the newsletter.
	ValidityDate string `validate:"omitempty,datetime=2006-01-02"`
	// OutputDir overrides the configured output directory when set.
	OutputDir string
	// PDF controls whether the rendered HTML is also converted to PDF.
	PDF   bool
	Items []newsletter.LineItem `validate:"required,min=1,dive"`
}

// Result summarizes a successful run.
type Result struct {
	RunID    int64
	Filename string
	HTMLPath string
	PDFPath  string

	ProductCount  int
	GrandTotal    string
	DiscountTotal string

	Duration time.Duration
}
