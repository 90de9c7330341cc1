package cli

import (
	"flag"
	"fmt"

	tmpl "github.com/mtp/newsletter/internal/domain/template"
)

func runTemplates(app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: newsletter templates <list|validate|install>")
	}
	switch args[0] {
	case "list":
		return templatesList(app)
	case "validate":
		return templatesValidate(app, args[1:])
	case "install":
		return templatesInstall(app, args[1:])
	default:
		return fmt.Errorf("unknown templates command %q", args[0])
	}
}

func templatesList(app *App) error {
	service := app.TemplateService()
	descriptors, err := service.List()
	if err != nil {
		return err
	}
	if len(descriptors) == 0 {
		fmt.Printf("No templates found in %s (run 'newsletter templates install')\n", service.Dir())
		return nil
	}

	fmt.Printf("Templates in %s:\n", service.Dir())
	for _, descriptor := range descriptors {
		fmt.Printf("  %-20s %-4s %s\n", descriptor.Name, descriptor.Language, descriptor.Filename())
	}
	return nil
}

func templatesValidate(app *App, args []string) error {
	flags := flag.NewFlagSet("templates validate", flag.ContinueOnError)
	name := flags.String("template", "", "template name; validates all templates when omitted")
	language := flags.String("language", "", "template language (de or en), required with -template")
	if err := flags.Parse(args); err != nil {
		return err
	}

	service := app.TemplateService()
	var results []tmpl.ValidationResult
	if *name != "" {
		if *language == "" {
			return fmt.Errorf("-language is required when validating a single template")
		}
		result, err := service.Validate(*name, *language)
		if err != nil {
			return err
		}
		results = []tmpl.ValidationResult{result}
	} else {
		all, err := service.ValidateAll()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Printf("No templates found in %s\n", service.Dir())
			return nil
		}
		results = all
	}

	invalid := 0
	for _, result := range results {
		if result.Valid {
			fmt.Printf("OK       %s\n", result.Descriptor.Filename())
			continue
		}
		invalid++
		fmt.Printf("INVALID  %s\n", result.Descriptor.Filename())
		for _, msg := range result.Errors {
			fmt.Printf("         - %s\n", msg)
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d templates failed validation", invalid, len(results))
	}
	return nil
}

func templatesInstall(app *App, args []string) error {
	flags := flag.NewFlagSet("templates install", flag.ContinueOnError)
	overwrite := flags.Bool("overwrite", false, "replace existing template files")
	if err := flags.Parse(args); err != nil {
		return err
	}

	result, err := app.TemplateService().Install(*overwrite)
	if err != nil {
		return err
	}
	for _, name := range result.Installed {
		fmt.Printf("Installed %s\n", name)
	}
	for _, name := range result.Skipped {
		fmt.Printf("Skipped   %s (already exists, use -overwrite to replace)\n", name)
	}
	return nil
}
