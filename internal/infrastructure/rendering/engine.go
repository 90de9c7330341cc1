package rendering

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtp/newsletter/internal/domain/shared"
)

// Engine renders newsletter templates with the shared function map. It uses
// Go's html/template package, so all interpolated values are escaped.
type Engine struct {
	funcMap template.FuncMap
}

// NewEngine creates a new template engine with the default function map
func NewEngine() *Engine {
	return &Engine{funcMap: FuncMap()}
}

// FuncMap returns the functions available inside newsletter templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatCurrency": formatCurrencyValue,
		"upper":          strings.ToUpper,
		"lower":          strings.ToLower,
		"trim":           strings.TrimSpace,
		"safeHTML": func(s string) template.HTML {
			// Only used for operator-authored static snippets, never for
			// upstream catalog data.
			return template.HTML(s)
		},
	}
}

// RenderFile parses the template at path and executes it against ctx,
// returning the HTML bytes.
func (e *Engine) RenderFile(path string, ctx *Context) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: template file %s", shared.ErrNotFound, path)
	}

	tmpl, err := template.New(filepath.Base(path)).Funcs(e.funcMap).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing template %s: %v", shared.ErrValidation, path, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
