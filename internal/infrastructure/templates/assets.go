package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	tmpl "github.com/mtp/newsletter/internal/domain/template"
)

//go:embed assets/*.html
var assetFS embed.FS

// InstallDefaults copies the bundled default template set into the registry
// directory. Existing files are skipped unless overwrite is set, so operator
// customizations stay protected.
func (r *Registry) InstallDefaults(overwrite bool) (*tmpl.InstallResult, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating template directory %s: %w", r.dir, err)
	}

	entries, err := fs.ReadDir(assetFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("reading bundled templates: %w", err)
	}

	result := &tmpl.InstallResult{}
	for _, entry := range entries {
		dst := filepath.Join(r.dir, entry.Name())
		if _, err := os.Stat(dst); err == nil && !overwrite {
			result.Skipped = append(result.Skipped, entry.Name())
			continue
		}

		content, err := assetFS.ReadFile("assets/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading bundled template %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(dst, content, 0644); err != nil {
			return nil, fmt.Errorf("installing template %s: %w", entry.Name(), err)
		}
		result.Installed = append(result.Installed, entry.Name())
	}
	return result, nil
}
