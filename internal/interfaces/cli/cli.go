package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mtp/newsletter/internal/infrastructure/config"
	"github.com/mtp/newsletter/internal/infrastructure/logger"
)

const usage = `Usage: newsletter <command> [arguments]

Commands:
  init                         prepare directories, database, and default templates
  cache refresh                fetch the product catalog and replace the local cache
  cache status                 show cache generation, age, and product count
  templates list               list discovered templates
  templates validate           validate all templates, or one with -template and -language
  templates install            install the bundled default templates
  generate                     generate a newsletter (see 'generate -h')
  runs list                    list recent generation runs
  runs show -id <id>           show one run as JSON

Configuration is read from config.toml and NEWSLETTER_* environment variables.`

// Run dispatches a command line invocation and returns the process exit code.
func Run(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Println(usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		return fail(err)
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fail(err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	app := NewApp(cfg, log)
	defer app.Close()

	switch args[0] {
	case "init":
		err = runInit(app)
	case "cache":
		err = runCache(app, args[1:])
	case "templates":
		err = runTemplates(app, args[1:])
	case "generate":
		err = runGenerate(app, args[1:])
	case "runs":
		err = runRuns(app, args[1:])
	default:
		err = fmt.Errorf("unknown command %q, see 'newsletter help'", args[0])
	}
	if err != nil {
		log.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		return fail(err)
	}
	return 0
}

// fail reports an error on stderr in the fixed operator-facing format.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	return 1
}
