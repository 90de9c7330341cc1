package cli

import (
	"context"
	"fmt"
	"time"
)

func runCache(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: newsletter cache <refresh|status>")
	}
	switch args[0] {
	case "refresh":
		return cacheRefresh(app)
	case "status":
		return cacheStatus(app)
	default:
		return fmt.Errorf("unknown cache command %q", args[0])
	}
}

func cacheRefresh(app *App) error {
	service, err := app.CacheService(true)
	if err != nil {
		return err
	}

	fmt.Println("Refreshing product cache...")
	snapshot, err := service.Refresh(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Cache refreshed: %d products (generation %d)\n", snapshot.Count(), snapshot.Generation())
	return nil
}

func cacheStatus(app *App) error {
	service, err := app.CacheService(false)
	if err != nil {
		return err
	}

	report, err := service.Status(context.Background())
	if err != nil {
		return err
	}
	if !report.HasSnapshot {
		fmt.Println("Cache: empty (run 'newsletter cache refresh')")
		return nil
	}

	age := time.Since(report.RefreshedAt).Round(time.Minute)
	fmt.Printf("Cache generation: %d\n", report.Generation)
	fmt.Printf("Products:         %d\n", report.RecordCount)
	fmt.Printf("Refreshed:        %s (%s ago)\n", report.RefreshedAt.Format("2006-01-02 15:04:05"), age)
	if report.Stale {
		fmt.Println("Warning: cache is stale, consider running 'newsletter cache refresh'")
	}
	return nil
}
