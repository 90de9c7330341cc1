// Package generation implements the newsletter generation pipeline: validate
// the request, resolve products against the cache, price, render HTML,
// convert to PDF, and append the run to the ledger.
package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
	tmpl "github.com/mtp/newsletter/internal/domain/template"
	"github.com/mtp/newsletter/internal/infrastructure/rendering"
)

// ProductResolver maps line items to cached product records.
type ProductResolver interface {
	Resolve(ctx context.Context, items []newsletter.LineItem) ([]catalog.ProductRecord, error)
}

// TemplateResolver finds the template file for a (name, language) pair.
type TemplateResolver interface {
	Resolve(name, language string) (tmpl.Descriptor, error)
}

// Renderer produces HTML bytes from a template file and a render context.
type Renderer interface {
	RenderFile(path string, ctx *rendering.Context) ([]byte, error)
}

// PDFConverter turns rendered HTML into PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// Service runs the generation pipeline. Every attempt, failed or successful,
// is appended to the run ledger exactly once.
type Service struct {
	products  ProductResolver
	templates TemplateResolver
	renderer  Renderer
	converter PDFConverter
	ledger    newsletter.RunLedger
	validate  *validator.Validate
	logger    *zap.Logger

	outputDir string
	now       func() time.Time
}

// NewService creates a generation service writing into outputDir by default.
func NewService(
	products ProductResolver,
	templates TemplateResolver,
	renderer Renderer,
	converter PDFConverter,
	ledger newsletter.RunLedger,
	outputDir string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products:  products,
		templates: templates,
		renderer:  renderer,
		converter: converter,
		ledger:    ledger,
		validate:  validator.New(),
		logger:    logger.Named("generation"),
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Generate executes one pipeline run. On any pipeline failure the run is
// recorded as failed with the error detail and the failure is returned; a
// PDF conversion failure keeps the HTML artifact. A ledger write failure
// after a completed pipeline is reported distinctly: the output files exist
// even though the run record does not.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	startedAt := s.now()
	record := &newsletter.RunRecord{
		TemplateName: req.TemplateName,
		Language:     req.Language,
		ValidityDate: req.ValidityDate,
		Items:        req.Items,
		OutputDir:    s.resolveOutputDir(req),
		Status:       newsletter.RunStatusFailed,
		StartedAt:    startedAt,
	}

	result, err := s.run(ctx, req, record)
	record.FinishedAt = s.now()
	if err != nil {
		record.ErrorDetail = err.Error()
		s.appendFailure(ctx, record)
		return nil, err
	}

	record.Status = newsletter.RunStatusSucceeded
	runID, appendErr := s.ledger.Append(ctx, record)
	if appendErr != nil {
		return nil, fmt.Errorf("%w: newsletter files were written to %s but the run could not be recorded: %v",
			shared.ErrPersistence, record.OutputDir, appendErr)
	}
	result.RunID = runID
	result.Duration = record.FinishedAt.Sub(startedAt)

	s.logger.Info("newsletter generated",
		zap.Int64("run_id", runID),
		zap.String("filename", record.Filename),
		zap.Int("products", record.ProductCount),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (s *Service) run(ctx context.Context, req Request, record *newsletter.RunRecord) (*Result, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	descriptor, err := s.templates.Resolve(req.TemplateName, req.Language)
	if err != nil {
		return nil, err
	}

	records, err := s.products.Resolve(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	priced := make([]newsletter.PricedItem, 0, len(req.Items))
	for i, item := range req.Items {
		priced = append(priced, newsletter.PriceItem(records[i], item))
	}
	totals := newsletter.SumTotals(priced)
	record.ProductCount = totals.ProductCount
	record.GrandTotal = totals.GrandTotal
	record.DiscountTotal = totals.DiscountTotal

	renderCtx := rendering.BuildContext(priced, totals, req.Language, req.ValidityDate, record.StartedAt)
	html, err := s.renderer.RenderFile(descriptor.Path, renderCtx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(record.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", record.OutputDir, err)
	}
	base := s.outputBasename(record.OutputDir, req.Language, record.StartedAt)
	record.Filename = base
	record.HTMLPath = filepath.Join(record.OutputDir, base+".html")

	if err := os.WriteFile(record.HTMLPath, html, 0644); err != nil {
		os.Remove(record.HTMLPath)
		record.HTMLPath = ""
		return nil, fmt.Errorf("writing HTML output: %w", err)
	}

	if req.PDF {
		pdf, err := s.converter.Convert(ctx, html)
		if err != nil {
			// The HTML artifact stays; only the PDF is missing.
			return nil, err
		}
		pdfPath := filepath.Join(record.OutputDir, base+".pdf")
		if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
			os.Remove(pdfPath)
			return nil, fmt.Errorf("writing PDF output: %w", err)
		}
		record.PDFPath = pdfPath
	}

	return &Result{
		Filename:      base,
		HTMLPath:      record.HTMLPath,
		PDFPath:       record.PDFPath,
		ProductCount:  totals.ProductCount,
		GrandTotal:    totals.GrandTotal.StringFixed(2),
		DiscountTotal: totals.DiscountTotal.StringFixed(2),
	}, nil
}

func (s *Service) validateRequest(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: invalid request field %s (%s)", shared.ErrValidation, first.Namespace(), first.Tag())
		}
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return newsletter.ValidateLineItems(req.Items)
}

func (s *Service) resolveOutputDir(req Request) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}
	return s.outputDir
}

// outputBasename builds the timestamped output name. When a file with the
// same second-resolution timestamp already exists, a short random suffix
// keeps concurrent invocations from overwriting each other.
func (s *Service) outputBasename(dir, language string, startedAt time.Time) string {
	base := fmt.Sprintf("newsletter_%s_%s", language, startedAt.Format("20060102_150405"))
	if !outputExists(dir, base) {
		return base
	}
	return base + "_" + uuid.NewString()[:8]
}

func outputExists(dir, base string) bool {
	for _, ext := range []string{".html", ".pdf"} {
		if _, err := os.Stat(filepath.Join(dir, base+ext)); err == nil {
			return true
		}
	}
	return false
}

// appendFailure records a failed run. A ledger failure on top of a pipeline
// failure is logged but does not mask the original error.
func (s *Service) appendFailure(ctx context.Context, record *newsletter.RunRecord) {
	if _, err := s.ledger.Append(ctx, record); err != nil {
		s.logger.Error("failed to record failed run",
			zap.String("template", record.TemplateName),
			zap.Error(err))
		return
	}
	s.logger.Warn("newsletter generation failed",
		zap.Int64("run_id", record.ID),
		zap.String("template", record.TemplateName),
		zap.String("error", record.ErrorDetail))
}
