package cli

import (
	"fmt"
	"os"
)

// runInit prepares a fresh installation: directories, database schema, and
// the bundled default templates. Safe to run repeatedly.
func runInit(app *App) error {
	for _, dir := range []string{app.cfg.Paths.TemplateDir, app.cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		fmt.Printf("Directory ready: %s\n", dir)
	}

	if _, err := app.Database(); err != nil {
		return err
	}
	fmt.Printf("Database ready:  %s\n", app.cfg.Database.URL)

	result, err := app.TemplateService().Install(false)
	if err != nil {
		return err
	}
	for _, name := range result.Installed {
		fmt.Printf("Installed template %s\n", name)
	}
	for _, name := range result.Skipped {
		fmt.Printf("Kept existing template %s\n", name)
	}

	fmt.Println("Initialization complete. Set NEWSLETTER_MTP_USERNAME, NEWSLETTER_MTP_PASSWORD,")
	fmt.Println("and NEWSLETTER_MTP_SERVICE_URL, then run 'newsletter cache refresh'.")
	return nil
}
