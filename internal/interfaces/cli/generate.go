package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mtp/newsletter/internal/application/generation"
	"github.com/mtp/newsletter/internal/domain/newsletter"
	"github.com/mtp/newsletter/internal/domain/shared"
)

func runGenerate(app *App, args []string) error {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	productsFile := flags.String("products-file", "", "path to the line items JSON file (required)")
	templateName := flags.String("template", "newsletter", "template name")
	language := flags.String("language", "de", "newsletter language (de or en)")
	validityDate := flags.String("validity-date", "", "offer validity date (YYYY-MM-DD)")
	outputDir := flags.String("output-dir", "", "override the configured output directory")
	pdf := flags.Bool("pdf", true, "also convert the newsletter to PDF")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *productsFile == "" {
		return fmt.Errorf("-products-file is required")
	}

	items, err := loadLineItems(*productsFile)
	if err != nil {
		return err
	}

	service, converter, err := app.GenerationService()
	if err != nil {
		return err
	}
	defer converter.Close()

	result, err := service.Generate(context.Background(), generation.Request{
		TemplateName: *templateName,
		Language:     *language,
		ValidityDate: *validityDate,
		OutputDir:    *outputDir,
		PDF:          *pdf,
		Items:        items,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Newsletter generated (run %d)\n", result.RunID)
	fmt.Printf("  Products: %d\n", result.ProductCount)
	fmt.Printf("  Total:    %s EUR", result.GrandTotal)
	if result.DiscountTotal != "0.00" {
		fmt.Printf(" (saved %s EUR)", result.DiscountTotal)
	}
	fmt.Println()
	fmt.Printf("  HTML:     %s\n", result.HTMLPath)
	if result.PDFPath != "" {
		fmt.Printf("  PDF:      %s\n", result.PDFPath)
	}
	return nil
}

// loadLineItems reads an operator-authored items file. Both a bare JSON array
// and an object with an "items" key are accepted.
func loadLineItems(path string) ([]newsletter.LineItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: items file %s", shared.ErrNotFound, path)
	}

	var items []newsletter.LineItem
	if err := json.Unmarshal(content, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []newsletter.LineItem `json:"items"`
	}
	if err := json.Unmarshal(content, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: items file %s is not valid JSON: %v", shared.ErrValidation, path, err)
	}
	return wrapped.Items, nil
}
