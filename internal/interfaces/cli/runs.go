package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"

	"github.com/mtp/newsletter/internal/domain/newsletter"
)

func runRuns(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: newsletter runs <list|show>")
	}
	switch args[0] {
	case "list":
		return runsList(app, args[1:])
	case "show":
		return runsShow(app, args[1:])
	default:
		return fmt.Errorf("unknown runs command %q", args[0])
	}
}

func runsList(app *App, args []string) error {
	flags := flag.NewFlagSet("runs list", flag.ContinueOnError)
	limit := flags.Int("limit", 0, "maximum number of runs to show")
	if err := flags.Parse(args); err != nil {
		return err
	}

	service, err := app.RunsService()
	if err != nil {
		return err
	}
	records, err := service.List(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No generation runs recorded yet")
		return nil
	}

	fmt.Printf("%-5s %-20s %-10s %-12s %-4s %-8s %s\n", "ID", "STARTED", "STATUS", "TEMPLATE", "LANG", "PRODUCTS", "TOTAL")
	for _, record := range records {
		fmt.Printf("%-5d %-20s %-10s %-12s %-4s %-8d %s\n",
			record.ID,
			record.StartedAt.Format("2006-01-02 15:04:05"),
			record.Status,
			record.TemplateName,
			record.Language,
			record.ProductCount,
			record.GrandTotal.StringFixed(2))
	}
	return nil
}

// runRecordView is the JSON shape printed by 'runs show'.
type runRecordView struct {
	ID           int64                 `json:"id"`
	Filename     string                `json:"filename,omitempty"`
	TemplateName string                `json:"template_name"`
	Language     string                `json:"language"`
	ValidityDate string                `json:"validity_date,omitempty"`
	Items        []newsletter.LineItem `json:"items"`

	ProductCount  int    `json:"product_count"`
	GrandTotal    string `json:"grand_total"`
	DiscountTotal string `json:"discount_total"`

	HTMLPath  string `json:"html_path,omitempty"`
	PDFPath   string `json:"pdf_path,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`

	Status      string `json:"status"`
	ErrorDetail string `json:"error_detail,omitempty"`

	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func runsShow(app *App, args []string) error {
	flags := flag.NewFlagSet("runs show", flag.ContinueOnError)
	id := flags.Int64("id", 0, "run identifier (required)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	runID := *id
	if runID == 0 && flags.NArg() == 1 {
		parsed, err := strconv.ParseInt(flags.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", flags.Arg(0))
		}
		runID = parsed
	}
	if runID == 0 {
		return fmt.Errorf("usage: newsletter runs show -id <id>")
	}

	service, err := app.RunsService()
	if err != nil {
		return err
	}
	record, err := service.Get(context.Background(), runID)
	if err != nil {
		return err
	}

	view := runRecordView{
		ID:            record.ID,
		Filename:      record.Filename,
		TemplateName:  record.TemplateName,
		Language:      record.Language,
		ValidityDate:  record.ValidityDate,
		Items:         record.Items,
		ProductCount:  record.ProductCount,
		GrandTotal:    record.GrandTotal.StringFixed(2),
		DiscountTotal: record.DiscountTotal.StringFixed(2),
		HTMLPath:      record.HTMLPath,
		PDFPath:       record.PDFPath,
		OutputDir:     record.OutputDir,
		Status:        string(record.Status),
		ErrorDetail:   record.ErrorDetail,
		StartedAt:     record.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt:    record.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
