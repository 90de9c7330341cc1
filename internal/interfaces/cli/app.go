// Package cli implements the command line interface: command dispatch,
// service wiring, and operator-facing output.
package cli

import (
	"fmt"

	"go.uber.org/zap"

	appcache "github.com/mtp/newsletter/internal/application/cache"
	"github.com/mtp/newsletter/internal/application/generation"
	"github.com/mtp/newsletter/internal/application/runs"
	apptemplates "github.com/mtp/newsletter/internal/application/templates"
	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/infrastructure/config"
	"github.com/mtp/newsletter/internal/infrastructure/mtpapi"
	"github.com/mtp/newsletter/internal/infrastructure/persistence"
	"github.com/mtp/newsletter/internal/infrastructure/rendering"
	"github.com/mtp/newsletter/internal/infrastructure/templates"
)

// App holds the wired services for one command invocation. The database is
// opened lazily so commands that never touch it work without one.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db *persistence.Database
}

// NewApp creates an application container.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Close releases held resources.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// Database opens (and migrates) the database on first use.
func (a *App) Database() (*persistence.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := persistence.Open(a.cfg.Database.URL, a.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	a.db = db
	return a.db, nil
}

func (a *App) cacheOptions() appcache.Options {
	return appcache.Options{
		RetryAttempts: a.cfg.Cache.RetryAttempts,
		RetryBackoff:  a.cfg.Cache.RetryBackoff,
		StaleAfter:    a.cfg.Cache.StaleAfter,
	}
}

// CacheService wires the cache service with an upstream client. Commands
// that only read the local snapshot pass withClient=false and skip the
// credential requirement.
func (a *App) CacheService(withClient bool) (*appcache.Service, error) {
	db, err := a.Database()
	if err != nil {
		return nil, err
	}
	store := persistence.NewGormSnapshotStore(db.DB)

	var client catalog.Client
	if withClient {
		if err := a.cfg.ValidateMTPCredentials(); err != nil {
			return nil, err
		}
		client, err = mtpapi.NewClient(&mtpapi.Config{
			ServiceURL: a.cfg.MTP.ServiceURL,
			Username:   a.cfg.MTP.Username,
			Password:   a.cfg.MTP.Password,
			Timeout:    a.cfg.MTP.Timeout,
		}, a.logger)
		if err != nil {
			return nil, err
		}
	}
	return appcache.NewService(client, store, a.logger, a.cacheOptions()), nil
}

// TemplateService wires the template registry service.
func (a *App) TemplateService() *apptemplates.Service {
	return apptemplates.NewService(templates.NewRegistry(a.cfg.Paths.TemplateDir), a.logger)
}

// RunsService wires the run ledger reader.
func (a *App) RunsService() (*runs.Service, error) {
	db, err := a.Database()
	if err != nil {
		return nil, err
	}
	return runs.NewService(persistence.NewGormRunLedger(db.DB)), nil
}

// GenerationService wires the full pipeline. The returned converter must be
// closed by the caller after the run.
func (a *App) GenerationService() (*generation.Service, *rendering.ChromedpConverter, error) {
	cacheService, err := a.CacheService(false)
	if err != nil {
		return nil, nil, err
	}
	db, err := a.Database()
	if err != nil {
		return nil, nil, err
	}

	converter := rendering.NewChromedpConverter(&rendering.ChromedpConfig{
		Timeout:   a.cfg.PDF.Timeout,
		NoSandbox: a.cfg.PDF.NoSandbox,
		Logger:    a.logger,
	})
	service := generation.NewService(
		cacheService,
		templates.NewRegistry(a.cfg.Paths.TemplateDir),
		rendering.NewEngine(),
		converter,
		persistence.NewGormRunLedger(db.DB),
		a.cfg.Paths.OutputDir,
		a.logger,
	)
	return service, converter, nil
}
